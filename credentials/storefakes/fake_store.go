package storefakes

import (
	"sync"

	"github.com/pathpal/pathpal-go/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

// FakeStore is an in-memory credential store for tests. Error fields, when
// set, are returned by the corresponding operation.
type FakeStore struct {
	lock    sync.RWMutex
	cred    credentials.Credential
	present bool

	SaveErr  error
	LoadErr  error
	ClearErr error

	SaveCalls  int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (s *FakeStore) Save(cred credentials.Credential) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.SaveCalls++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	if !cred.Complete() {
		return credentials.ErrPartialCredential
	}
	s.cred = cred
	s.present = true
	return nil
}

func (s *FakeStore) Load() (credentials.Credential, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.LoadErr != nil {
		return credentials.Credential{}, false, s.LoadErr
	}
	return s.cred, s.present, nil
}

func (s *FakeStore) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.ClearCalls++
	if s.ClearErr != nil {
		return s.ClearErr
	}
	s.cred = credentials.Credential{}
	s.present = false
	return nil
}

// Seed places a credential in the store without going through Save.
func (s *FakeStore) Seed(cred credentials.Credential) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cred = cred
	s.present = true
}

// Empty reports whether the store currently holds no credential.
func (s *FakeStore) Empty() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return !s.present
}

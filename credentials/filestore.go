package credentials

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltLength = 16
	scryptN    = 1 << 15
	scryptR    = 8
	scryptP    = 1
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the credential as a single encrypted blob on disk. The blob
// layout is salt || nonce || ciphertext; the cipher key is derived from the
// passphrase with scrypt and a per-save salt. Writes go to a temp file in the
// same directory and are renamed into place, so a concurrent Load only ever
// sees a complete blob.
type FileStore struct {
	path       string
	passphrase []byte
}

// NewFileStore creates a store backed by the file at path. The passphrase is
// typically supplied by the platform keychain or the environment.
func NewFileStore(path, passphrase string) *FileStore {
	return &FileStore{
		path:       path,
		passphrase: []byte(passphrase),
	}
}

// Save encrypts and writes the credential, replacing any previous one.
func (fs *FileStore) Save(cred Credential) error {
	if !cred.Complete() {
		return ErrPartialCredential
	}

	plaintext, err := json.Marshal(cred)
	if err != nil {
		return &StorageError{Op: "save", Err: errors.Wrap(err, "marshal credential")}
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return &StorageError{Op: "save", Err: errors.Wrap(err, "generate salt")}
	}

	aead, err := fs.cipher(salt)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return &StorageError{Op: "save", Err: errors.Wrap(err, "generate nonce")}
	}

	blob := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aead.Seal(blob, nonce, plaintext, nil)

	if err := fs.writeAtomic(blob); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Load reads and decrypts the credential. A missing file yields ok == false
// with a nil error.
func (fs *FileStore) Load() (Credential, bool, error) {
	blob, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, &StorageError{Op: "load", Err: err}
	}

	headerLen := saltLength + chacha20poly1305.NonceSizeX
	if len(blob) < headerLen {
		return Credential{}, false, &StorageError{Op: "load", Err: errors.New("blob truncated")}
	}

	salt := blob[:saltLength]
	nonce := blob[saltLength:headerLen]

	aead, err := fs.cipher(salt)
	if err != nil {
		return Credential{}, false, &StorageError{Op: "load", Err: err}
	}

	plaintext, err := aead.Open(nil, nonce, blob[headerLen:], nil)
	if err != nil {
		return Credential{}, false, &StorageError{Op: "load", Err: errors.Wrap(err, "decrypt blob")}
	}

	var cred Credential
	if err := json.Unmarshal(plaintext, &cred); err != nil {
		return Credential{}, false, &StorageError{Op: "load", Err: errors.Wrap(err, "unmarshal credential")}
	}
	if !cred.Complete() {
		return Credential{}, false, &StorageError{Op: "load", Err: ErrPartialCredential}
	}
	return cred, true, nil
}

// Clear removes the credential file. Clearing an already-empty store is not
// an error.
func (fs *FileStore) Clear() error {
	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (fs *FileStore) cipher(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(fs.passphrase, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "derive key")
	}
	return chacha20poly1305.NewX(key)
}

func (fs *FileStore) writeAtomic(blob []byte) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create directory")
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp file")
	}
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return errors.Wrap(err, "rename into place")
	}
	return nil
}

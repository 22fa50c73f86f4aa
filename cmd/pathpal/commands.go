package main

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type loginCmd struct {
	Email    string `short:"e" long:"email" required:"true" description:"Account email"`
	Password string `short:"p" long:"password" required:"true" description:"Account password"`
}

func (c *loginCmd) Execute(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := app.manager.Login(context.Background(), c.Email, c.Password); err != nil {
		return err
	}
	state := app.manager.States().Current()
	fmt.Printf("logged in as %s (token valid until %s)\n", state.UserID, state.ExpiresAt.Format(time.RFC3339))
	return nil
}

type logoutCmd struct{}

func (c *logoutCmd) Execute(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := app.manager.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

type meCmd struct{}

func (c *meCmd) Execute(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	user, err := app.api.Me(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s>\n", user.FullName, user.Email)
	fmt.Printf("member since %s\n", user.CreatedAt.Format("2006-01-02"))
	if len(user.EmergencyContacts) > 0 {
		fmt.Printf("emergency contacts: %s\n", strings.Join(user.EmergencyContacts, ", "))
	}
	return nil
}

type tripsCmd struct {
	Page     int `long:"page" default:"1" description:"Page number"`
	PageSize int `long:"page-size" default:"20" description:"Trips per page"`
}

func (c *tripsCmd) Execute(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	list, err := app.api.ListTrips(context.Background(), c.Page, c.PageSize)
	if err != nil {
		return err
	}
	for _, trip := range list.Trips {
		status := "completed"
		if trip.IsActive {
			status = "active"
		}
		fmt.Printf("%s  %-9s %s (%.1f km, %d participants)\n",
			trip.ID, status, trip.DestinationName,
			float64(trip.DistanceMeters)/1000, trip.ParticipantCount)
	}
	fmt.Printf("page %d of %d trips\n", list.Page, list.Total)
	return nil
}

type alertsCmd struct{}

func (c *alertsCmd) Execute(args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	history, err := app.api.AlertHistoryList(context.Background())
	if err != nil {
		return err
	}
	for _, alert := range history {
		fmt.Printf("%s  %-10s (%.5f, %.5f) %d contacts notified\n",
			alert.CreatedAt.Format(time.RFC3339), alert.ProcessingStatus,
			alert.Latitude, alert.Longitude, alert.ContactsNotified)
	}
	return nil
}

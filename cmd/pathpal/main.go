package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/pathpal/pathpal-go/internal/config"
)

type options struct {
	Login  loginCmd  `command:"login" description:"Authenticate and store a session"`
	Logout logoutCmd `command:"logout" description:"End the session and clear stored credentials"`
	Me     meCmd     `command:"me" description:"Show the current user profile"`
	Trips  tripsCmd  `command:"trips" description:"List trips"`
	Alerts alertsCmd `command:"alerts" description:"Show emergency alert history"`
}

func main() {
	// .env is optional; real configuration comes from the environment.
	_ = godotenv.Load()

	displayAppName(config.New().GetAppName())

	parser := flags.NewParser(&options{}, flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func displayAppName(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

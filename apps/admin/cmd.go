package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/school"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db        *sqlx.DB
	accSvc    *account.Service
	schoolSvc *school.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addschool -school ID [-name NAME] [-district DISTRICT] [-admin] - create a school account")
	fmt.Println("  resetpassword -school ID|EMAIL - reset a school's password")
	fmt.Println("  setactive -school ID [-active=false] - activate or deactivate a school account")
	fmt.Println("  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, ...)")
}

func (cli *commandLine) promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolCmd := flag.NewFlagSet("addschool", flag.ContinueOnError)
	addSchoolID := addSchoolCmd.String("school", "", "The school ID, local part of its sign-in email. The password will be prompted next.")
	addSchoolName := addSchoolCmd.String("name", "", "The school display name.")
	addSchoolDistrict := addSchoolCmd.String("district", "", "The school district.")
	addSchoolAdmin := addSchoolCmd.Bool("admin", false, "Allow the account to edit every school.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordLogin := resetPasswordCmd.String("school", "", "The school ID or sign-in email. The password will be prompted next.")

	setActiveCmd := flag.NewFlagSet("setactive", flag.ContinueOnError)
	setActiveID := setActiveCmd.String("school", "", "The school ID.")
	setActiveValue := setActiveCmd.Bool("active", true, "Whether the account can sign in.")

	switch args[1] {
	case "addschool":
		if err := addSchoolCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolID == "" {
			addSchoolCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addSchoolCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addSchool(*addSchoolID, *addSchoolName, *addSchoolDistrict, pwd, *addSchoolAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordLogin == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordLogin, pwd)

	case "setactive":
		if err := setActiveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setActiveID == "" {
			setActiveCmd.Usage()
			return errHelp
		}
		return cli.setActive(*setActiveID, *setActiveValue)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

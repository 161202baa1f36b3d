package main

import "context"

// resetPassword replaces the password of the account signing in with login.
func (cli *commandLine) resetPassword(login, pwd string) error {
	_, err := cli.accSvc.SetPassword(context.Background(), login, pwd)
	return err
}

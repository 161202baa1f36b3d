package main

import (
	"context"

	"github.com/carbonschool/dashboard/core/account"
)

// addSchool creates the account of a school and stores its profile.
func (cli *commandLine) addSchool(id, name, district, pwd string, isAdmin bool) error {
	ctx := context.Background()
	acc, err := cli.accSvc.Create(ctx, account.NewAccount{
		SchoolID:        id,
		Name:            name,
		District:        district,
		IsAdmin:         isAdmin,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	if err != nil {
		return err
	}
	if _, err = cli.schoolSvc.SetProfile(ctx, acc.ID, acc.Name, acc.District); err != nil {
		return err
	}
	logger.Info("created account " + acc.Email)
	return nil
}

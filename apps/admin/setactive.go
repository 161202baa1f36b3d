package main

import "context"

func (cli *commandLine) setActive(id string, active bool) error {
	_, err := cli.accSvc.SetActive(context.Background(), id, active)
	return err
}

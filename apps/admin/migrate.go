package main

func (cli *commandLine) migrate(command string, args []string) error {
	return migrateFunc(command, cli.db, args...)
}

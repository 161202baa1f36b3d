package inmemdb

import (
	"testing"

	"github.com/carbonschool/dashboard/storage/database/repotest"
)

func TestAccountRepository(t *testing.T) {
	repotest.Accounts(t, NewAccountRepository(Open()))
}

func TestSchoolRepository(t *testing.T) {
	repotest.Schools(t, NewSchoolRepository(Open()))
}

func TestEnergyRepository(t *testing.T) {
	repotest.Energy(t, NewEnergyRepository(Open()))
}

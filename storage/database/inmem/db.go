// Package inmemdb keeps every table in memory. It backs tests and local demos.
package inmemdb

import (
	"sync"
	"time"

	"github.com/carbonschool/dashboard/core/account"
	"github.com/carbonschool/dashboard/core/energy"
)

type (
	DB struct {
		account  *accountTable
		document *documentTable
		energy   *energyTable
		nowFunc  func() time.Time
	}

	accountTable struct {
		table map[string]*account.Account
		mutex sync.RWMutex
	}

	storedDocument struct {
		data      []byte
		createdAt time.Time
		updatedAt time.Time
	}

	documentTable struct {
		table map[string]*storedDocument
		mutex sync.RWMutex
	}

	monthlyKey struct {
		schoolID    string
		metric      energy.Metric
		year, month int
	}

	hourlyKey struct {
		schoolID string
		metric   energy.Metric
		day      string
		hour     int
	}

	energyTable struct {
		monthly map[monthlyKey]float64
		hourly  map[hourlyKey]float64
		mutex   sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		account:  &accountTable{table: make(map[string]*account.Account)},
		document: &documentTable{table: make(map[string]*storedDocument)},
		energy: &energyTable{
			monthly: make(map[monthlyKey]float64),
			hourly:  make(map[hourlyKey]float64),
		},
		nowFunc: time.Now,
	}
}

func (db *DB) now() time.Time {
	return db.nowFunc().UTC()
}

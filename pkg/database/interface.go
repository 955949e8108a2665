// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type IDatabase interface {
	// Database returns the underlying *gorm.DB (MySQL)
	Database() *gorm.DB
}

type databaseAdapter struct {
	db *gorm.DB
}

func NewDatabaseAdapter(manager Manager) IDatabase {
	return &databaseAdapter{db: manager.MySQL()}
}

// NewGormDB wraps an already opened connection, mainly for tests.
func NewGormDB(db *gorm.DB) IDatabase {
	return &databaseAdapter{db: db}
}

func (d *databaseAdapter) Database() *gorm.DB {
	return d.db
}

// ReadDB routes the statement to a replica when one is registered.
func ReadDB(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Read)
}

// WriteDB pins the statement to the primary.
func WriteDB(db *gorm.DB) *gorm.DB {
	return db.Clauses(dbresolver.Write)
}

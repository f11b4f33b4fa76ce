package dummydb

import (
	"sync"

	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
)

type (
	DB struct {
		course      *courseTable
		question    *questionTable
		applicant   *applicantTable
		application *applicationTable
		document    *documentTable
	}

	courseTable struct {
		sync.RWMutex
		table map[int]*course.Course
	}

	questionTable struct {
		sync.RWMutex
		table map[int]*course.Question
	}

	applicantTable struct {
		sync.RWMutex
		table map[int]*application.Applicant
	}

	applicationTable struct {
		sync.RWMutex
		table map[int]*application.Application
	}

	documentTable struct {
		sync.RWMutex
		table map[int]*application.Document
	}
)

func Open() (*DB, error) {
	db := &DB{
		course:      &courseTable{table: make(map[int]*course.Course)},
		question:    &questionTable{table: make(map[int]*course.Question)},
		applicant:   &applicantTable{table: make(map[int]*application.Applicant)},
		application: &applicationTable{table: make(map[int]*application.Application)},
		document:    &documentTable{table: make(map[int]*application.Document)},
	}
	return db, nil
}

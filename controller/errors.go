package controller

import "fmt"

// InvalidControllerError is returned when the backing file of the
// requested controller does not exist. The file is never loaded in this
// case.
type InvalidControllerError struct {
	Controller string
	File       string
}

func (e *InvalidControllerError) Error() string {
	return fmt.Sprintf("invalid controller %q: backing file %s does not exist", e.Controller, e.File)
}

// IntegrityError is returned in debug mode when a backing file was loaded
// but did not register the expected controller. It typically means the
// file was copied from a template without renaming the registration.
type IntegrityError struct {
	Controller string
	File       string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("controller %q not registered after loading %s", e.Controller, e.File)
}

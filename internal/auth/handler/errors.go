package handler

import (
	"errors"

	dErrors "civic/pkg/domain-errors"
)

func isDomainError(err error) bool {
	var de *dErrors.Error
	return errors.As(err, &de)
}

package domain

import apperrors "github.com/utafrali/storefront/pkg/errors"

func invalid(msg string) error {
	return apperrors.InvalidInput(msg)
}

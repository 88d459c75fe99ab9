package agreement

import "errors"

var (
	ErrNotFound                     = errors.New("agreement not found")
	ErrCounterpartyRequired         = errors.New("counterparty name is required")
	ErrExpirationRequired           = errors.New("expiration date is required")
	ErrEffectiveAfterExpiration     = errors.New("effective date must be before expiration date")
	ErrInvalidConfidentialityPeriod = errors.New("confidentiality period must be a positive number of years")
	ErrFileRequired                 = errors.New("agreement file is required")
	ErrFileTooLarge                 = errors.New("file too large, maximum size is 10MB")
	ErrNotPDF                       = errors.New("only PDF files are allowed")
	ErrUploadLimitReached           = errors.New("upload limit reached for current plan")
	ErrAlertsRequirePro             = errors.New("automatic expiration alerts require an active pro subscription")
	ErrFailedToStoreFile            = errors.New("failed to store agreement file")
)

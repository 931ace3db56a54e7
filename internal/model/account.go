package model

import "fmt"

// AccountInfo identifies the account whose data is being packaged.
// HealthCode is optional: some accounts have never uploaded through the
// mobile health-code flow and are packaged from catalog metadata alone.
type AccountInfo struct {
	EmailAddress string
	UserID       string
	HealthCode   string // optional
}

// NewAccountInfo validates the required fields and builds an AccountInfo.
// AccountInfo is immutable after construction.
func NewAccountInfo(emailAddress, userID, healthCode string) (AccountInfo, error) {
	if emailAddress == "" {
		return AccountInfo{}, fmt.Errorf("emailAddress is required")
	}
	if userID == "" {
		return AccountInfo{}, fmt.Errorf("userId is required")
	}
	return AccountInfo{EmailAddress: emailAddress, UserID: userID, HealthCode: healthCode}, nil
}

// Package model はドメインモデルを定義する。
package model

import "time"

// ApplicationStatus は応募の選考状態を表す。
type ApplicationStatus string

const (
	// ApplicationStatusPending は選考中（作成時のデフォルト）。
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusAccepted は採用決定。
	ApplicationStatusAccepted ApplicationStatus = "accepted"
)

// Valid は選考状態が定義済みの値かどうかを返す。
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted:
		return true
	default:
		return false
	}
}

// Application は求人への応募を表す。
// JobTitle と JobCompany は応募時点の求人情報のコピーであり、求人への参照ではない。
type Application struct {
	ID             string
	JobID          string
	JobTitle       string
	JobCompany     string
	ApplicantName  string
	ApplicantEmail string
	Status         ApplicationStatus
	DateApplied    time.Time
}

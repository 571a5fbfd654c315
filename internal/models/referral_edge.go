package models

import "time"

// ReferralEdge links a referrer to the user they referred. One referrer
// per referred user. The two awarded flags transition false to true
// exactly once each and gate the two referral ledger entries.
type ReferralEdge struct {
	ID                       uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ReferredAddress          string     `gorm:"uniqueIndex;size:64;not null" json:"referred_address"`
	ReferrerAddress          string     `gorm:"size:64;not null;index" json:"referrer_address"`
	ReferralCode             string     `gorm:"size:50" json:"referral_code"`
	SignupPointsAwarded      bool       `gorm:"not null;default:false" json:"signup_points_awarded"`
	FirstTransactionAt       *time.Time `json:"first_transaction_at"`
	TransactionPointsAwarded bool       `gorm:"not null;default:false" json:"transaction_points_awarded"`
	CreatedAt                time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (ReferralEdge) TableName() string {
	return "user_referrals"
}

package fraud

// Case statuses and verification markers stored on a fraud case row.
const (
	StatusPendingReview    = "pending_review"
	StatusSafe             = "safe"
	StatusFraudulent       = "fraudulent"
	VerificationVerified   = "verified"
	VerificationUnverified = "unverified"
)

// Case is a row of the fraud_cases table.
type Case struct {
	ID                  uint   `gorm:"column:id;primaryKey" json:"id"`
	UserName            string `gorm:"column:userName" json:"userName"`
	SecurityIdentifier  string `gorm:"column:securityIdentifier" json:"securityIdentifier"`
	CardEnding          string `gorm:"column:cardEnding" json:"cardEnding"`
	Status              string `gorm:"column:case_status" json:"caseStatus"`
	TransactionName     string `gorm:"column:transactionName" json:"transactionName"`
	TransactionTime     string `gorm:"column:transactionTime" json:"transactionTime"`
	TransactionCategory string `gorm:"column:transactionCategory" json:"transactionCategory"`
	TransactionSource   string `gorm:"column:transactionSource" json:"transactionSource"`
	VerificationStatus  string `gorm:"column:verificationStatus" json:"verificationStatus"`
	Outcome             string `gorm:"column:outcome" json:"outcome"`
}

// TableName pins the table name used by the bank's schema.
func (Case) TableName() string {
	return "fraud_cases"
}

package settlement

// Record is one parsed line of an offer file.
// BankType, InterbankCode, BusinessType and AgreementNo are only filled
// for interbank (他行) offers.
type Record struct {
	Line          int    `json:"line"`
	Name          string `json:"name"`
	CardNumber    string `json:"card_number"`
	Amount        Amount `json:"amount"`
	Remark        string `json:"remark"`
	BankType      string `json:"bank_type,omitempty"`
	InterbankCode string `json:"interbank_code,omitempty"`
	BusinessType  string `json:"business_type,omitempty"`
	AgreementNo   string `json:"agreement_no,omitempty"`
}

// Disposition codes written into reply files
const (
	DefaultSuccessFlag = "全部成功"

	CodeSuccess = "001"
	CodeFailure = "002"
)

// DispositionCode maps the counterparty's processing flag to the 3-digit
// reply prefix. Only an exact match of successFlag counts as success.
func DispositionCode(flag, successFlag string) string {
	if flag == successFlag {
		return CodeSuccess
	}
	return CodeFailure
}

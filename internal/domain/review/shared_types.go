package review

// Result is the outcome a user reports for a completed review.
type Result string

const (
	ResultRemembered Result = "remembered"
	ResultPartial    Result = "partial"
	ResultForgot     Result = "forgot"
)

// Valid reports whether r is one of the three known outcomes.
func (r Result) Valid() bool {
	switch r {
	case ResultRemembered, ResultPartial, ResultForgot:
		return true
	}
	return false
}

// MaxTimeSpentSeconds caps the self-reported duration of a single review.
const MaxTimeSpentSeconds = 86400

package token

// Outcome is the verdict of a Validation. The zero value is OutcomeInvalid, so an
// unset Validation never reads as valid.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeExpired
	OutcomeOK
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeExpired:
		return "expired"
	default:
		return "invalid"
	}
}

// Validation carries the verdict for one token. Claims is set for OK and Expired;
// Err is set for Invalid.
type Validation struct {
	Outcome Outcome
	Claims  *Claims
	Err     error
}

func (v Validation) OK() bool {
	return v.Outcome == OutcomeOK
}

// Validator decides whether a token may be trusted right now. It has no side
// effects and keeps no record of tokens it has seen.
type Validator struct {
	codec *Codec
}

func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec}
}

func (v *Validator) Validate(tokenString string) Validation {
	claims, err := v.codec.Decode(tokenString)
	if err != nil {
		return Validation{Outcome: OutcomeInvalid, Err: err}
	}

	if !claims.ExpiresAt.Time.After(v.codec.Now()) {
		return Validation{Outcome: OutcomeExpired, Claims: claims}
	}
	return Validation{Outcome: OutcomeOK, Claims: claims}
}

// internal/tokens/ledger.go
package tokens

// Kind identifies a billable operation. The set is closed; costs live in
// one table so a new kind cannot ship without a price.
type Kind int

const (
	UploadImage Kind = iota
	UploadZip
	Inference
)

// Cost per item. An out-of-range Kind prices at 0, mirroring the historical
// free fallback of this system; no caller can reach it with the enum, and a
// test pins the behavior so a change here is deliberate.
var unitCost = map[Kind]float64{
	UploadImage: 0.65,
	UploadZip:   0.70,
	Inference:   1.50,
}

func (k Kind) String() string {
	switch k {
	case UploadImage:
		return "uploadImage"
	case UploadZip:
		return "uploadZip"
	case Inference:
		return "inference"
	}
	return "unknown"
}

// Cost returns the tokens required to apply the operation to count items.
func Cost(kind Kind, count int) float64 {
	return unitCost[kind] * float64(count)
}

// Remaining returns the balance left after paying for the operation. The
// caller commits the new balance only when the result is non-negative;
// a negative result means the whole operation must be rejected with no
// partial effect.
func Remaining(balance float64, kind Kind, count int) float64 {
	return balance - Cost(kind, count)
}

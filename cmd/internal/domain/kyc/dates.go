package kyc

const registryDateLength = 8

// ToISO converts the registry's DDMMYYYY digit string into YYYY-MM-DD.
// Returns "" for anything that is not exactly 8 digits.
//
// This is pure slicing: calendar-invalid inputs such as day 32 pass
// through untouched, matching the registry contract this service was
// built against.
func ToISO(ddmmyyyy string) string {
	if len(ddmmyyyy) != registryDateLength {
		return ""
	}
	for i := 0; i < registryDateLength; i++ {
		if ddmmyyyy[i] < '0' || ddmmyyyy[i] > '9' {
			return ""
		}
	}

	day := ddmmyyyy[0:2]
	month := ddmmyyyy[2:4]
	year := ddmmyyyy[4:8]
	return year + "-" + month + "-" + day
}

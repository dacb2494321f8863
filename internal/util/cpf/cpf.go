package cpf

// Validate checks the two verification digits of a Brazilian CPF. The input
// must be exactly 11 digits, no punctuation.
func Validate(number string) bool {
	if len(number) != 11 {
		return false
	}
	digits := make([]int, 11)
	allEqual := true
	for i := 0; i < 11; i++ {
		ch := number[i]
		if ch < '0' || ch > '9' {
			return false
		}
		digits[i] = int(ch - '0')
		if digits[i] != digits[0] {
			allEqual = false
		}
	}
	// sequences like 00000000000 pass the digit math but are not valid CPFs
	if allEqual {
		return false
	}
	return checkDigit(digits, 9) && checkDigit(digits, 10)
}

func checkDigit(digits []int, pos int) bool {
	sum := 0
	for i, weight := 0, pos+1; i < pos; i, weight = i+1, weight-1 {
		sum += digits[i] * weight
	}
	expected := sum * 10 % 11 % 10
	return digits[pos] == expected
}

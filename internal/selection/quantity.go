package selection

// Quantity bounds for a single add-to-basket action.
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Clamp bounds q to [MinQuantity, MaxQuantity].
func Clamp(q int) int {
	return min(MaxQuantity, max(MinQuantity, q))
}

// Step applies a stepper button press to q.
func Step(q, delta int) int {
	return Clamp(q + delta)
}

// ClampQuantity parses free-form quantity input. The leading integer is used
// ("12abc" is 12, "2.5" is 2); input without one, and zero, count as 1.
func ClampQuantity(input string) int {
	n, ok := leadingInt(input)
	if !ok || n == 0 {
		return MinQuantity
	}
	return Clamp(n)
}

// leadingInt reads an optionally signed run of digits after leading
// whitespace. Magnitudes past MaxQuantity saturate.
func leadingInt(s string) (int, bool) {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}

	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	n, digits := 0, 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		if n <= MaxQuantity {
			n = n*10 + int(s[i]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

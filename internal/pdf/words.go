package pdf

import (
	"math"
	"strings"
)

var onesWords = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tensWords = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// AmountInWords spells an INR amount in the Indian numbering system
// (thousand, lakh, crore), with paise when present.
func AmountInWords(amount float64) string {
	if amount < 0 {
		amount = 0
	}
	rupees := int64(amount)
	paise := int64(math.Round((amount - float64(rupees)) * 100))
	if paise == 100 {
		rupees++
		paise = 0
	}

	words := "Rupees " + spellIndian(rupees)
	if paise > 0 {
		words += " and " + spellIndian(paise) + " Paise"
	}
	return words + " Only"
}

func spellIndian(n int64) string {
	if n == 0 {
		return "Zero"
	}

	var parts []string
	appendGroup := func(value int64, unit string) {
		if value > 0 {
			group := spellBelowThousand(value)
			if unit != "" {
				group += " " + unit
			}
			parts = append(parts, group)
		}
	}

	appendGroup(n/10000000, "Crore")
	n %= 10000000
	appendGroup(n/100000, "Lakh")
	n %= 100000
	appendGroup(n/1000, "Thousand")
	n %= 1000
	appendGroup(n, "")

	return strings.Join(parts, " ")
}

func spellBelowThousand(n int64) string {
	var parts []string
	if n >= 100 {
		parts = append(parts, onesWords[n/100]+" Hundred")
		n %= 100
	}
	if n >= 20 {
		word := tensWords[n/10]
		if n%10 > 0 {
			word += " " + onesWords[n%10]
		}
		parts = append(parts, word)
	} else if n > 0 {
		parts = append(parts, onesWords[n])
	}
	return strings.Join(parts, " ")
}

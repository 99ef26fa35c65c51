package publication

// BasicPublicationCode is always charged, whether or not the seller selected
// any add-on services.
const BasicPublicationCode = "publicacion_basica"

// PriceTable maps a service code to its cost in credits
type PriceTable map[string]int64

// TotalCost sums the basic publication fee plus each selected add-on found
// in the price table. Unknown codes cost zero rather than erroring, and
// duplicate selections are charged once. Pure function, no I/O.
func TotalCost(selected []string, table PriceTable) int64 {
	total := table[BasicPublicationCode]

	counted := make(map[string]bool, len(selected))
	for _, code := range selected {
		if code == BasicPublicationCode || counted[code] {
			continue
		}
		counted[code] = true
		total += table[code]
	}

	return total
}

package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MrJamesThe3rd/ledgerly/internal/client"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

// Names shorter than this match too much of arbitrary bank text.
const minNameLen = 3

type counterparty struct {
	id     string
	folded string
	typ    client.Type
}

// counterparties holds the client book folded for matching against bank text.
type counterparties []counterparty

func newCounterparties(clients []*client.Client) counterparties {
	out := make(counterparties, 0, len(clients))

	for _, c := range clients {
		f := fold(c.Name)
		if len(f) < minNameLen {
			continue
		}

		out = append(out, counterparty{id: c.ID, folded: f, typ: c.Type})
	}

	return out
}

// match returns the id of the longest name found on word boundaries in raw.
// Income only matches clients and expenses only match vendors; TypeBoth
// matches either.
func (cs counterparties) match(raw string, typ transaction.Type) string {
	text := " " + fold(raw) + " "

	var best counterparty

	for _, c := range cs {
		if !c.accepts(typ) || len(c.folded) <= len(best.folded) {
			continue
		}

		if strings.Contains(text, " "+c.folded+" ") {
			best = c
		}
	}

	return best.id
}

func (c counterparty) accepts(typ transaction.Type) bool {
	switch c.typ {
	case client.TypeBoth:
		return true
	case client.TypeClient:
		return typ == transaction.TypeIncome
	case client.TypeVendor:
		return typ == transaction.TypeExpense
	}

	return false
}

// fold lowercases s, strips accents and reduces it to single-spaced words.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	plain, _, err := transform.String(t, s)
	if err != nil {
		plain = s
	}

	words := strings.FieldsFunc(strings.ToLower(plain), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(words, " ")
}

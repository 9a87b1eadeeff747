package misc

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

type QuotesManager struct {
	Quotes        []*Quote
	AuthorsQuotes map[string][]*Quote
	GenresQuotes  map[string][]*Quote
}

func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{}
	qm.AuthorsQuotes = make(map[string][]*Quote)
	qm.GenresQuotes = make(map[string][]*Quote)

	log.Println("reading quotes CSV ...")

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		// QUOTE;AUTHOR;GENRE
		quote := &Quote{
			Text:   record[0],
			Author: record[1],
			Genre:  record[2],
		}
		qm.Quotes = append(qm.Quotes, quote)

		qm.AuthorsQuotes[quote.Author] = append(qm.AuthorsQuotes[quote.Author], quote)
		qm.GenresQuotes[quote.Genre] = append(qm.GenresQuotes[quote.Genre], quote)
	}

	log.Printf("quotes CSV read %d quotes", len(qm.Quotes))

	return qm, nil
}

func (qm *QuotesManager) RandomQuote() *Quote {
	if qm == nil || len(qm.Quotes) == 0 {
		return nil
	}
	return qm.Quotes[rand.Intn(len(qm.Quotes))]
}

// RandomQuoteBy picks a random quote by author and of genre. Empty filters
// match any quote. Nil is returned when nothing matches.
func (qm *QuotesManager) RandomQuoteBy(author, genre string) *Quote {
	if author == "" && genre == "" {
		return qm.RandomQuote()
	}
	if qm == nil {
		return nil
	}

	var candidates []*Quote
	switch {
	case author != "" && genre != "":
		for _, q := range qm.AuthorsQuotes[author] {
			if q.Genre == genre {
				candidates = append(candidates, q)
			}
		}
	case author != "":
		candidates = qm.AuthorsQuotes[author]
	default:
		candidates = qm.GenresQuotes[genre]
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

// DailyQuote returns the same quote for the whole calendar day of day.
func (qm *QuotesManager) DailyQuote(day time.Time) *Quote {
	if qm == nil || len(qm.Quotes) == 0 {
		return nil
	}
	y, m, d := day.Date()
	daysSinceEpoch := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return qm.Quotes[int(daysSinceEpoch%int64(len(qm.Quotes)))]
}

// Package seed reads the bank directory seed file.
package seed

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/josh-kwaku/tizim-bank/internal/domain"
)

const dateLayout = "2006-01-02"

type bankFile struct {
	Banks []bankRecord `yaml:"banks"`
}

type bankRecord struct {
	Name            string `yaml:"name"`
	Address         string `yaml:"address"`
	EstablishedDate string `yaml:"established_date"`
}

// LoadBanks decodes a seed document of the form
//
//	banks:
//	  - name: Ipoteka Bank
//	    address: Tashkent
//	    established_date: "1991-04-12"
func LoadBanks(r io.Reader) ([]domain.Bank, error) {
	var file bankFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("LoadBanks: decode: %w", err)
	}

	seen := make(map[string]bool, len(file.Banks))
	banks := make([]domain.Bank, 0, len(file.Banks))
	now := time.Now().UTC()
	for i, rec := range file.Banks {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			return nil, fmt.Errorf("LoadBanks: banks[%d]: name: %w", i, domain.ErrRequired)
		}
		if seen[name] {
			return nil, fmt.Errorf("LoadBanks: banks[%d]: duplicate name %q", i, name)
		}
		seen[name] = true

		b := domain.Bank{
			ID:        uuid.New(),
			Name:      name,
			Address:   strings.TrimSpace(rec.Address),
			CreatedAt: now,
		}
		if rec.EstablishedDate != "" {
			d, err := time.Parse(dateLayout, rec.EstablishedDate)
			if err != nil {
				return nil, fmt.Errorf("LoadBanks: banks[%d]: established_date: %w", i, err)
			}
			b.EstablishedDate = &d
		}
		banks = append(banks, b)
	}
	return banks, nil
}

func LoadBanksFile(path string) ([]domain.Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadBanksFile: %w", err)
	}
	defer f.Close()
	return LoadBanks(f)
}

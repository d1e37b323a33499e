// Package refdata loads the static reference tables driving entity extraction
// and classification: the company/stock-code table, the keyword vocabulary, and
// the category keyword lists. Tables are loaded once at startup and treated as
// read-only for the process lifetime.
package refdata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	companiesFile  = "companies.yaml"
	keywordsFile   = "keywords.yaml"
	categoriesFile = "categories.yaml"
)

// LoadError reports a reference table that exists but cannot be used. The
// caller aborts the run: classifying without tables would be meaningless.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load reference table %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Company maps one listed company (and its aliases) to a stock code.
type Company struct {
	Name    string   `yaml:"name"`
	Code    string   `yaml:"code"`
	Aliases []string `yaml:"aliases"`
}

// Industry pairs an industry label with the keywords that select it. Table
// order is the classification tie-break, so entries form an ordered list.
type Industry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Tables bundles every reference table the engine consumes. A zero Tables is
// valid: extraction attaches nothing and classification degrades to general.
type Tables struct {
	Companies         []Company
	Vocabulary        []string
	PolicyKeywords    []string
	ImportantKeywords []string
	Industries        []Industry
}

type companiesDoc struct {
	Companies []Company `yaml:"companies"`
}

type keywordsDoc struct {
	Vocabulary []string `yaml:"vocabulary"`
}

type categoriesDoc struct {
	Policy     []string   `yaml:"policy"`
	Important  []string   `yaml:"important"`
	Industries []Industry `yaml:"industries"`
}

// Load reads all reference tables from dir. A missing file yields an empty
// table (the engine degrades rather than failing the batch); an unreadable or
// unparseable file yields a *LoadError.
func Load(dir string) (*Tables, error) {
	t := &Tables{}

	var companies companiesDoc
	if err := loadFile(filepath.Join(dir, companiesFile), &companies); err != nil {
		return nil, err
	}
	t.Companies = companies.Companies

	var keywords keywordsDoc
	if err := loadFile(filepath.Join(dir, keywordsFile), &keywords); err != nil {
		return nil, err
	}
	t.Vocabulary = keywords.Vocabulary

	var categories categoriesDoc
	if err := loadFile(filepath.Join(dir, categoriesFile), &categories); err != nil {
		return nil, err
	}
	t.PolicyKeywords = categories.Policy
	t.ImportantKeywords = categories.Important
	t.Industries = categories.Industries

	return t, nil
}

func loadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return &LoadError{File: filepath.Base(path), Err: err}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return &LoadError{File: filepath.Base(path), Err: err}
	}
	return nil
}

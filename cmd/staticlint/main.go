// Command staticlint bundles the vet passes, ineffassign, nilerr, a
// configurable subset of staticcheck and the project's nosecretlog
// analyzer into one multichecker binary.
//
// The staticcheck subset is read from config.json next to the binary.
// Without that file every SA check runs.
package main

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gordonklaus/ineffassign/pkg/ineffassign"
	"github.com/gostaticanalysis/nilerr"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/staticcheck"

	"github.com/patric-chuzhbe/bookmarks/cmd/staticlint/nosecretlog"
)

// Config is the name of the file listing the enabled staticcheck analyzers.
const Config = `config.json`

// ConfigData is the layout of Config, e.g. {"Staticcheck": ["SA1000", "SA4010"]}.
type ConfigData struct {
	Staticcheck []string
}

func loadConfig() (ConfigData, error) {
	appfile, err := os.Executable()
	if err != nil {
		return ConfigData{}, err
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(appfile), Config))
	if errors.Is(err, os.ErrNotExist) {
		return ConfigData{}, nil
	}
	if err != nil {
		return ConfigData{}, err
	}

	var cfg ConfigData
	err = json.Unmarshal(data, &cfg)

	return cfg, err
}

func selectStaticcheck(enabled []string) []*analysis.Analyzer {
	checks := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		checks[name] = true
	}

	var selected []*analysis.Analyzer
	for _, v := range staticcheck.Analyzers {
		name := v.Analyzer.Name
		if checks[name] || (len(checks) == 0 && strings.HasPrefix(name, "SA")) {
			selected = append(selected, v.Analyzer)
		}
	}

	return selected
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	checks := []*analysis.Analyzer{
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		printf.Analyzer,
		structtag.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,

		ineffassign.Analyzer,
		nilerr.Analyzer,

		nosecretlog.Analyzer,
	}
	checks = append(checks, selectStaticcheck(cfg.Staticcheck)...)

	multichecker.Main(checks...)
}

package samplesales

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/okian/insights/internal/domain/model"
	"github.com/okian/insights/pkg/logger"
)

// Layouts the generator writes dates in. All of them are month-first.
var dateLayouts = []string{ //nolint:gochecknoglobals // read-only
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
}

var productNames = []string{ //nolint:gochecknoglobals // read-only
	"Sourdough", "Croissant", "Espresso", "Latte", "Bagel", "Muffin", "Scone", "Baguette",
}

var exportHeader = []string{"Date", " Product ", "Sales Amount", "Units Sold", "Store Region"} //nolint:gochecknoglobals // read-only

// Kinds of damage applied to a row.
const (
	damageNoDate = iota
	damageNoProduct
	damageBadAmount
	damageMissingAmount
	damageBadUnits
	damageKinds
)

var missingSpellings = []string{"", "NA", "n/a", "null", "#N/A"} //nolint:gochecknoglobals // read-only

var startDay = model.NewDate(2024, time.January, 1) //nolint:gochecknoglobals // fixed epoch

// Generator produces messy point-of-sale exports from a seed.
type Generator struct {
	rng    *rand.Rand
	ids    *rand.ChaCha8
	config *Config
}

// NewGenerator returns a generator for config. Equal seeds produce equal exports.
func NewGenerator(config *Config) *Generator {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	ids := rand.NewChaCha8(key)
	return &Generator{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		ids:    ids,
		config: config,
	}
}

// GenerateExports creates one export per owner.
func GenerateExports(ctx context.Context, config *Config, stats *Stats) ([]Export, error) {
	logger.Get().Info(ctx, "generating sales exports",
		logger.Int("owners", config.Owners),
		logger.Int("days", config.Days),
		logger.Int("products", config.Products))

	g := NewGenerator(config)
	exports := make([]Export, 0, config.Owners)
	for i := 0; i < config.Owners; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		e, err := g.Export(i)
		if err != nil {
			return nil, fmt.Errorf("failed to generate export %d: %w", i, err)
		}
		exports = append(exports, e)
		stats.RowsGenerated += e.Rows
		stats.RowsDamaged += e.Damaged
	}

	stats.ExportsGenerated = len(exports)
	logger.Get().Info(ctx, "generated exports successfully",
		logger.Int("count", len(exports)),
		logger.Int("rows", stats.RowsGenerated),
		logger.Int("damaged", stats.RowsDamaged))
	return exports, nil
}

// Export builds the index-th export. Every third export is a workbook.
func (g *Generator) Export(index int) (Export, error) {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return Export{}, fmt.Errorf("owner id: %w", err)
	}
	owner := "owner-" + id.String()[:8]
	e := Export{
		Owner:    owner,
		Password: samplePassword,
		Business: fmt.Sprintf("Sample Shop %d", index+1),
	}

	products := g.products()
	base := 20 + g.rng.Float64()*80
	trend := g.rng.Float64()*2 - 0.5

	rows := [][]string{exportHeader}
	seen := map[model.Date]struct{}{}
	for d := 0; d < g.config.Days; d++ {
		day := startDay.AddDays(d)
		for _, p := range products {
			amount := round2(math.Max(0, base+trend*float64(d)+g.rng.NormFloat64()*5))
			units := 1 + g.rng.IntN(40)
			row := []string{g.formatDate(day), p, strconv.FormatFloat(amount, 'f', 2, 64), strconv.Itoa(units), "North"}

			kept := true
			if g.rng.Float64() < g.config.Messiness {
				e.Damaged++
				switch g.rng.IntN(damageKinds) {
				case damageNoDate:
					row[0] = g.missing()
					kept = false
				case damageNoProduct:
					row[1] = g.missing()
					kept = false
				case damageBadAmount:
					row[2] = "abc"
					amount = 0
				case damageMissingAmount:
					row[2] = g.missing()
					amount = 0
				case damageBadUnits:
					row[3] = g.missing()
				}
			}
			rows = append(rows, row)
			e.Rows++
			if !kept {
				continue
			}
			e.TotalSales += amount
			seen[day] = struct{}{}
			if e.FirstDay.IsZero() || day.Before(e.FirstDay) {
				e.FirstDay = day
			}
			if day.After(e.LastDay) {
				e.LastDay = day
			}
		}
	}
	e.Days = len(seen)

	if index%3 == 2 {
		e.Name = fmt.Sprintf("sales-%02d.xlsx", index+1)
		e.Data, err = workbook(rows)
	} else {
		e.Name = fmt.Sprintf("sales-%02d.csv", index+1)
		e.Data, err = csvBytes(rows)
	}
	if err != nil {
		return Export{}, err
	}
	return e, nil
}

func (g *Generator) products() []string {
	n := min(max(g.config.Products, 1), len(productNames))
	perm := g.rng.Perm(len(productNames))
	out := make([]string, n)
	for i := range out {
		out[i] = productNames[perm[i]]
	}
	return out
}

func (g *Generator) formatDate(d model.Date) string {
	layout := dateLayouts[g.rng.IntN(len(dateLayouts))]
	return d.Time().Format(layout)
}

func (g *Generator) missing() string {
	return missingSpellings[g.rng.IntN(len(missingSpellings))]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func csvBytes(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func workbook(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

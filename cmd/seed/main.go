// Command seed generates a realistic demo transactions CSV for batch runs.
//
// Usage:
//
//	go run ./cmd/seed [-out data/transactions.csv] [-n 300]
//
// The generated dataset mixes the behaviours the engine is built to catch:
//   - ~70% routine low-risk purchases from established customers
//   - ~10% night-time and cross-border activity
//   - ~10% high-amount purchases, some from brand-new users
//   - ~5% degraded sessions with extreme latency
//   - ~5% hard-block candidates (repeat chargebacks + high-risk IPs)
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var header = []string{
	"chargeback_count", "ip_risk", "email_risk", "device_fingerprint_risk",
	"user_reputation", "hour", "bin_country", "ip_country",
	"amount_mxn", "product_type", "latency_ms", "customer_txn_30d",
}

type row struct {
	chargebacks int
	ipRisk      string
	emailRisk   string
	deviceRisk  string
	reputation  string
	hour        int
	binCountry  string
	ipCountry   string
	amount      float64
	productType string
	latencyMS   int
	txn30d      int
}

func (r row) fields() []string {
	return []string{
		strconv.Itoa(r.chargebacks), r.ipRisk, r.emailRisk, r.deviceRisk,
		r.reputation, strconv.Itoa(r.hour), r.binCountry, r.ipCountry,
		strconv.FormatFloat(r.amount, 'f', 2, 64), r.productType,
		strconv.Itoa(r.latencyMS), strconv.Itoa(r.txn30d),
	}
}

var (
	countries   = []string{"MX", "US", "BR", "CO", "AR"}
	products    = []string{"digital", "physical", "subscription"}
	reputations = []string{"trusted", "recurrent", "new"}
)

func main() {
	out := flag.String("out", "data/transactions.csv", "output CSV path")
	n := flag.Int("n", 300, "number of transactions to generate")
	flag.Parse()

	rng := rand.New(rand.NewSource(42)) // deterministic for reproducibility

	rows := make([]row, 0, *n)
	for i := 0; i < *n; i++ {
		switch pick := rng.Float64(); {
		case pick < 0.70:
			rows = append(rows, routine(rng))
		case pick < 0.80:
			rows = append(rows, nightCrossBorder(rng))
		case pick < 0.90:
			rows = append(rows, highAmount(rng))
		case pick < 0.95:
			rows = append(rows, slowSession(rng))
		default:
			rows = append(rows, hardBlockCandidate(rng))
		}
	}

	if err := writeCSV(*out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated %d transactions → %s\n", len(rows), *out)
}

// routine is an unremarkable purchase from an established customer.
func routine(rng *rand.Rand) row {
	country := countries[rng.Intn(len(countries))]
	return row{
		ipRisk:      "low",
		emailRisk:   "low",
		deviceRisk:  "low",
		reputation:  reputations[rng.Intn(len(reputations))],
		hour:        8 + rng.Intn(13), // business hours
		binCountry:  country,
		ipCountry:   country,
		amount:      50 + rng.Float64()*900,
		productType: products[rng.Intn(len(products))],
		latencyMS:   20 + rng.Intn(400),
		txn30d:      rng.Intn(12),
	}
}

// nightCrossBorder combines off-hours activity with a country mismatch.
func nightCrossBorder(rng *rand.Rand) row {
	r := routine(rng)
	r.hour = []int{22, 23, 0, 1, 2, 3}[rng.Intn(6)]
	r.binCountry = "US"
	r.ipCountry = "MX"
	if rng.Float64() < 0.5 {
		r.ipRisk = "medium"
	}
	return r
}

// highAmount is a purchase over the product threshold, often from a new user.
func highAmount(rng *rand.Rand) row {
	r := routine(rng)
	r.productType = "digital"
	r.amount = 2500 + rng.Float64()*3000
	if rng.Float64() < 0.6 {
		r.reputation = "new"
		r.emailRisk = "new_domain"
	}
	return r
}

// slowSession has extreme processing latency, a degraded-path signal.
func slowSession(rng *rand.Rand) row {
	r := routine(rng)
	r.latencyMS = 2500 + rng.Intn(5000)
	return r
}

// hardBlockCandidate pairs repeat chargebacks with a high-risk IP.
func hardBlockCandidate(rng *rand.Rand) row {
	r := routine(rng)
	r.chargebacks = 2 + rng.Intn(3)
	r.ipRisk = "high"
	r.reputation = "high_risk"
	return r
}

func writeCSV(path string, rows []row) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r.fields()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Command seed-data writes a sample product catalog, tax table, and one
// order file for local development.
package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xenking/flooring-orders/pkg/textfile"
)

var (
	products = []string{
		"ProductType,CostPerSquareFoot,LaborCostPerSquareFoot",
		"Carpet,2.25,2.10",
		"Laminate,1.75,2.10",
		"Tile,3.50,4.15",
		"Wood,5.15,4.75",
	}
	taxes = []string{
		"State,StateName,TaxRate",
		"TX,Texas,4.45",
		"WA,Washington,9.25",
		"KY,Kentucky,6.00",
		"CA,California,25.00",
	}
	sampleOrders = []string{
		"OrderNumber,CustomerName,State,TaxRate,ProductType,Area," +
			"CostPerSquareFoot,LaborCostPerSquareFoot,MaterialCost,LaborCost,Tax,Total",
		"1,Ada Lovelace,CA,25.00,Tile,249.00,3.50,4.15,871.50,1033.35,476.21,2381.06",
	}
)

func main() {
	var dataDir string
	flag.StringVar(&dataDir, "data-dir", "res", "root directory for sample data")
	flag.Parse()

	files := map[string][]string{
		filepath.Join(dataDir, "Data", "Products.txt"):          products,
		filepath.Join(dataDir, "Data", "Taxes.txt"):             taxes,
		filepath.Join(dataDir, "Orders", "Orders_06012013.txt"): sampleOrders,
	}

	if err := os.MkdirAll(filepath.Join(dataDir, "Backup"), 0o755); err != nil {
		slog.Error("create backup dir", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for path, lines := range files {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			slog.Error("create dir", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := textfile.WriteAtomic(path, func(w io.Writer) error {
			return textfile.WriteLines(w, lines)
		}); err != nil {
			slog.Error("write sample file", slog.String("path", path), slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("sample file written", slog.String("path", path))
	}
}

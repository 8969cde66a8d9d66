package config_test

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/mongoextract/pkg/config"
)

// ExampleNewConfig demonstrates creating a configuration with default values.
func ExampleNewConfig() {
	cfg := config.NewConfig("orders")

	fmt.Printf("Protocol: %s\n", cfg.Db.Protocol)
	fmt.Printf("Program: %s\n", cfg.Process.Program)
	fmt.Printf("Timeout: %s\n", cfg.Process.Timeout)

	// Output:
	// Protocol: mongodb
	// Program: mongoexport
	// Timeout: 1h0m0s
}

// ExampleParse shows loading a YAML configuration.
func ExampleParse() {
	cfg, err := config.Parse([]byte(`
name: shop
db:
  protocol: mongodb+srv
  host: cluster0.example.net
  database: shop
exports:
  - name: orders
    collection: orders
    limit: 100
`))
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("Protocol: %s\n", cfg.Db.Protocol)
	fmt.Printf("Export: %s limit=%s mode=%s\n", cfg.Exports[0].Name, cfg.Exports[0].Limit, cfg.Exports[0].Mode)
	fmt.Printf("Output: %s\n", cfg.Exports[0].OutputPath(cfg.Process.OutputDir))

	// Output:
	// Protocol: mongodb+srv
	// Export: orders limit=100 mode=mapping
	// Output: out/orders.json
}

// ExampleConfig_Validate shows how a broken export definition is reported.
func ExampleConfig_Validate() {
	cfg := config.NewConfig("shop")
	cfg.Process.Timeout = 10 * time.Minute
	cfg.Exports = []config.ExportConfig{
		{Name: "orders", Collection: "orders", IncrementalFetchingColumn: "updatedAt", Query: `{"a": 1}`},
	}

	fmt.Println(cfg.Validate())

	// Output:
	// config: export "orders": query cannot be combined with incremental_fetching_column
}

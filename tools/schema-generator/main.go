// Command schema-generator writes the JSON Schema of br0wse.yml to
// schema/definitions/br0wse.schema.json for editor integration.
package main

import (
	"os"
	"path/filepath"

	"github.com/grovetools/br0wse/config"
	"github.com/grovetools/br0wse/logging"
)

func main() {
	logger := logging.NewLogger("schema-generator")

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		logger.WithError(err).Fatal("Error generating schema")
	}

	outputDir := filepath.Join("schema", "definitions")
	if len(os.Args) > 1 {
		outputDir = os.Args[1]
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		logger.WithError(err).Fatal("Error creating schema directory")
	}

	outputPath := filepath.Join(outputDir, "br0wse.schema.json")
	if err := os.WriteFile(outputPath, append(schemaBytes, '\n'), 0644); err != nil {
		logger.WithError(err).Fatal("Error writing schema file")
	}

	logger.Infof("Generated schema at %s", outputPath)
}

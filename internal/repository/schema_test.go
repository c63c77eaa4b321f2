package repository

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cip-api/internal/models"
)

// The sqlmock tests exercise query shape but not the DDL, so the struct db
// tags and scripts/schema.sql can drift apart silently. These checks pin the
// two together.

func schemaColumns(t *testing.T, table string) map[string]bool {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join("..", "..", "scripts", "schema.sql"))
	require.NoError(t, err)

	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\n\);`)
	match := re.FindStringSubmatch(string(raw))
	require.Len(t, match, 2, "table %s not found in schema.sql", table)

	columns := make(map[string]bool)
	for _, line := range strings.Split(match[1], "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "--") {
			continue
		}
		columns[fields[0]] = true
	}
	return columns
}

func dbTags(v interface{}) []string {
	typ := reflect.TypeOf(v)
	tags := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("db")
		if tag != "" && tag != "-" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func TestSchemaMatchesPartnershipModel(t *testing.T) {
	columns := schemaColumns(t, "partnerships")

	for _, tag := range dbTags(models.Partnership{}) {
		assert.True(t, columns[tag], "partnerships is missing column %q", tag)
	}
}

func TestSchemaMatchesPartnershipMessageModel(t *testing.T) {
	columns := schemaColumns(t, "partnership_messages")

	for _, tag := range dbTags(models.PartnershipMessage{}) {
		assert.True(t, columns[tag], "partnership_messages is missing column %q", tag)
	}
}

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `Kategori;Alt Kategori;Ürün Grubu;Komisyon_%_KDV_Dahil
Elektronik;Ses;Kulaklık;12,5
Elektronik;Ses;Kulaklık;15
Moda;Giyim;Elbise;20
`

func writeFixture(t *testing.T) (registry, dir string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.csv"), []byte(testCSV), 0o644))

	registry = filepath.Join(dir, "marketplaces.yaml")
	require.NoError(t, os.WriteFile(registry, []byte(`
data_dir: `+dir+`
marketplaces:
  - id: shop
    label: Shop
    file: shop.csv
    policy: max
    mode: full-chain
  - id: missing
    label: Missing
    file: nothing.csv
`), 0o644))
	return registry, dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	registry, dir := writeFixture(t)

	out, err := run(t, "--registry", registry, "--data-dir", dir, "search", "shop", "kulaklik")
	require.NoError(t, err)
	assert.Contains(t, out, "Elektronik → Ses → Kulaklık")
	assert.Contains(t, out, "15,00%")

	out, err = run(t, "--registry", registry, "search", "shop", "yok")
	require.NoError(t, err)
	assert.Contains(t, out, "no results")

	_, err = run(t, "--registry", registry, "search", "etsy", "x")
	assert.Error(t, err)
}

func TestCategoriesCommand(t *testing.T) {
	registry, _ := writeFixture(t)

	out, err := run(t, "--registry", registry, "categories", "shop")
	require.NoError(t, err)
	assert.Equal(t, "Elektronik\nModa\n", out)

	out, err = run(t, "--registry", registry, "categories", "shop", "Elektronik", "Ses")
	require.NoError(t, err)
	assert.Equal(t, "Kulaklık\n", out)

	out, err = run(t, "--registry", registry, "--json", "categories", "shop", "Moda")
	require.NoError(t, err)
	var items []string
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Equal(t, []string{"Giyim"}, items)
}

func TestRateCommand(t *testing.T) {
	registry, _ := writeFixture(t)

	out, err := run(t, "--registry", registry, "rate", "shop", "Moda", "Giyim", "Elbise")
	require.NoError(t, err)
	assert.Equal(t, "20,00%\n", out)

	_, err = run(t, "--registry", registry, "rate", "shop", "Moda", "Giyim", "Etek")
	assert.Error(t, err)
}

func TestMarketplacesCommand(t *testing.T) {
	registry, _ := writeFixture(t)

	out, err := run(t, "--registry", registry, "marketplaces")
	require.NoError(t, err)
	assert.Contains(t, out, "shop")
	assert.Contains(t, out, "missing")
}

func TestValidateCommand(t *testing.T) {
	registry, dir := writeFixture(t)

	out, err := run(t, "--registry", registry, "validate", filepath.Join(dir, "shop.csv"), "--marketplace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "records")
	assert.Contains(t, out, "3")

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a;b\n1;2\n"), 0o644))
	out, err = run(t, "--registry", registry, "validate", bad, "-m", "shop")
	assert.Error(t, err)
	assert.Contains(t, out, "error")

	_, err = run(t, "--registry", registry, "validate", bad)
	assert.Error(t, err)

	_, err = run(t, "--registry", registry, "validate", bad, "-m", "etsy")
	assert.Error(t, err)
}

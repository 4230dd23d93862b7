package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Discard()
}

const sourceBody = `{"records":[
	{"fields":{"nom":"PALAIS","ylat":46.5841,"xlong":0.3468,"places":120}},
	{"fields":{"nom":"GARE","ylat":46.5820,"xlong":0.3331,"places":300}}
]}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := New(&out)
	app.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, url string) string {
	t.Helper()
	content := fmt.Sprintf(`{
  "city": "Poitier",
  "requestsData": [{
    "method": "get",
    "url": %q,
    "iSMapper": {
      "responseType": "JSONObject",
      "listFieldPath": "records",
      "iSFields": {
        "id": "fields.nom",
        "name": "fields.nom",
        "nbPlaces": "fields.places",
        "latitude": "fields.ylat",
        "longitude": "fields.xlong"
      }
    }
  }]
}`, url)
	path := filepath.Join(t.TempDir(), "poitier.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func source(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(sourceBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAggregate(t *testing.T) {
	path := writeConfig(t, source(t).URL)

	out, err := run(t, "aggregate", "--config", path)
	require.NoError(t, err)

	var facilities []models.Facility
	require.NoError(t, json.Unmarshal([]byte(out), &facilities))
	require.Len(t, facilities, 2)
	assert.Equal(t, "PALAIS", facilities[0].Name)
	assert.Equal(t, "Poitier", facilities[0].City)
	require.NotNil(t, facilities[0].NbPlaces)
	assert.Equal(t, 120, *facilities[0].NbPlaces)
	assert.Nil(t, facilities[0].NbPlacesRemaining)
	assert.Equal(t, "GARE", facilities[1].Name)
}

func TestAggregateInRange(t *testing.T) {
	path := writeConfig(t, source(t).URL)

	out, err := run(t, "aggregate", "--config", path, "--lat", "46.5841", "--lon", "0.3468", "--range", "0.1")
	require.NoError(t, err)

	var facilities []models.Facility
	require.NoError(t, json.Unmarshal([]byte(out), &facilities))
	require.Len(t, facilities, 1)
	assert.Equal(t, "PALAIS", facilities[0].Name)
}

func TestAggregateByName(t *testing.T) {
	path := writeConfig(t, source(t).URL)

	out, err := run(t, "aggregate", "--config", path, "--name", "GARE")
	require.NoError(t, err)

	var facility models.Facility
	require.NoError(t, json.Unmarshal([]byte(out), &facility))
	assert.Equal(t, "GARE", facility.ID)

	_, err = run(t, "aggregate", "--config", path, "--name", "gare")
	assert.EqualError(t, err, `no facility named "gare" in Poitier`)
}

func TestAggregateArguments(t *testing.T) {
	path := writeConfig(t, source(t).URL)

	_, err := run(t, "aggregate")
	assert.Error(t, err)

	_, err = run(t, "aggregate", "--config", path, "--lat", "46.5")
	assert.EqualError(t, err, "--lat and --lon must be given together")

	_, err = run(t, "aggregate", "--config", path, "--lat", "46.5", "--lon", "0.3", "--range", "-1")
	assert.Error(t, err)

	_, err = run(t, "aggregate", "--config", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDistance(t *testing.T) {
	out, err := run(t, "distance", "0", "0", "0", "1")
	require.NoError(t, err)
	assert.Equal(t, "111.189577\n", out)

	out, err = run(t, "distance", "46.58", "0.34", "46.58", "0.34")
	require.NoError(t, err)
	assert.Equal(t, "0.000000\n", out)
}

func TestDistanceErrors(t *testing.T) {
	_, err := run(t, "distance", "0", "0", "0", "1", "--unit", "M")
	assert.ErrorIs(t, err, geo.ErrUnitNotImplemented)

	_, err = run(t, "distance", "0", "0", "0", "1", "--unit", "X")
	assert.Error(t, err)

	_, err = run(t, "distance", "north", "0", "0", "1")
	assert.EqualError(t, err, `invalid coordinate "north"`)

	_, err = run(t, "distance", "0", "0")
	assert.Error(t, err)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sheetcfg "github.com/genn/painel-os/internal/config"
	"github.com/genn/painel-os/internal/logger"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/genn/painel-os/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const banrisulCSV = `CONTRATO,OS,STATUS*,DISCIPLINAS,ORÇAMENTISTA,NORMAL / URGENTE,RESPONSAVEL TÉCNICO,DATA RECEBIDO,DATA FINALIZADO,DATA ORÇADO,VALOR ORÇADO,VALOR INSUMO,VALOR MÃO DE OBRA
A,OS-1,EXECUTADO,ELÉTRICA,ANA,NORMAL,JOÃO,10/07/2024,12/07/2024,11/07/2024,"R$ 1.234,56","R$ 234,56","R$ 1.000,00"
A,OS-2,RECEBIDO,ALVENARIA,ANA,URGENTE,,15/07/2024,,,,,
B,OS-3,ORÇADO,PINTURA,BETO,NORMAL,,01/06/2024,,20/06/2024,abc,,
`

const sopCSV = `CONTRATO,STATUS,DISCIPLINAS,DATA EXECUÇÃO (INÍCIO)
A,RECEBIDO,CIVIL,01/07/2024
A,EXECUTADO,ELÉTRICA,
B,EXECUTADO,CIVIL,02/07/2024
`

const testSheets = `
sheets:
  - name: banrisul
    url: %[1]s/banrisul.csv
    panels: [daily, budget, weekly, overview]
    contracts:
      - {id: A, label: Lote A}
      - {id: B, label: Lote B}
    status_sets:
      open: [RECEBIDO, ORÇADO]
      closed: [EXECUTADO]
    finalized_statuses: [EXECUTADO]
  - name: fora
    url: %[1]s/missing.csv
  - name: sop
    url: %[1]s/sop.csv
    status_column: STATUS
    status_sets:
      open: [RECEBIDO]
      closed: [EXECUTADO]
`

type fakeOrders struct {
	records map[string][]types.Record
	columns map[string][]string
}

func (f *fakeOrders) GetBySheet(ctx context.Context, sheet string) ([]types.Record, error) {
	return f.records[sheet], nil
}

func (f *fakeOrders) GetColumns(ctx context.Context, sheet string) ([]string, error) {
	columns, ok := f.columns[sheet]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return columns, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []store.IngestionHistory
}

func (f *fakeHistory) InsertIngestionHistory(ctx context.Context, h *store.IngestionHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	h.ID = int64(len(f.records) + 1)
	f.records = append(f.records, *h)
	return nil
}

func (f *fakeHistory) GetLatest(ctx context.Context, limit int) ([]store.IngestionHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.IngestionHistory{}, f.records...), nil
}

func (f *fakeHistory) UpdateIngestionStatus(ctx context.Context, id int64, u store.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.records) {
		return store.ErrIngestionNotFound
	}
	f.records[id-1].Status = u.Status
	f.records[id-1].RowsLoaded = u.RowsLoaded
	return nil
}

func newTestApp(t *testing.T) (*application, *fakeHistory) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/banrisul.csv":
			io.WriteString(w, banrisulCSV)
		case "/sop.csv":
			io.WriteString(w, sopCSV)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	sheets, err := sheetcfg.Parse([]byte(fmt.Sprintf(testSheets, srv.URL)))
	require.NoError(t, err)

	history := &fakeHistory{}
	return &application{
		config: config{datasetSource: sourceSheet, corsOrigins: []string{"*"}},
		store:  store.Storage{IngestionHistory: history},
		sheets: sheets,
		loader: sheetLoader{client: srv.Client()},
		logger: logger.New(io.Discard, logger.LevelError),
	}, history
}

func do(t *testing.T, app *application, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	app.mount().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, data any) {
	t.Helper()
	envelope := struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, data))
}

func TestHealthAndSheets(t *testing.T) {
	app, _ := newTestApp(t)

	rec := do(t, app, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"available"`)

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	req.Header.Set("Origin", "https://painel.example.com")
	rec = httptest.NewRecorder()
	app.mount().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, app, http.MethodGet, "/v1/sheets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sheets []SheetInfo
	decodeData(t, rec, &sheets)
	require.Len(t, sheets, 3)
	assert.Equal(t, "BANRISUL", sheets[0].Title)
	assert.Equal(t, []string{"overview"}, sheets[1].Panels)
}

func TestStatusMapping(t *testing.T) {
	app, _ := newTestApp(t)

	cases := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown sheet", "/v1/sheets/nope/panels/overview", http.StatusNotFound},
		{"unknown panel", "/v1/sheets/banrisul/panels/monthly", http.StatusNotFound},
		{"panel not offered", "/v1/sheets/fora/panels/daily", http.StatusNotFound},
		{"bad date", "/v1/sheets/banrisul/panels/overview?start_date=2024-13-01", http.StatusBadRequest},
		{"reversed range", "/v1/sheets/banrisul/metrics/count?start_date=2024-08-01&end_date=2024-07-01", http.StatusBadRequest},
		{"bad include_rows", "/v1/sheets/banrisul/panels/overview?include_rows=maybe", http.StatusBadRequest},
		{"bad granularity", "/v1/sheets/banrisul/metrics/periods?granularity=week", http.StatusBadRequest},
		{"missing dimension", "/v1/sheets/banrisul/metrics/dimensions", http.StatusBadRequest},
		{"range without date field", "/v1/sheets/banrisul/metrics/sum?start_date=2024-07-01", http.StatusBadRequest},
		{"unknown column", "/v1/sheets/banrisul/metrics/count?date_field=NOPE", http.StatusUnprocessableEntity},
		{"text column summed", "/v1/sheets/banrisul/metrics/sum?value_field=OS", http.StatusUnprocessableEntity},
		{"unreachable sheet", "/v1/sheets/fora/panels/overview", http.StatusBadGateway},
		{"panel ok", "/v1/sheets/banrisul/panels/weekly?start_date=2024-07-01&end_date=2024-07-31", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, app, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/count?date_field=NOPE", "")
	assert.Contains(t, rec.Body.String(), "NOPE", "schema errors name the column")
}

func TestMetricsEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	july := "start_date=2024-07-01&end_date=2024-07-31"

	var count CountResult
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/count?contract=A&"+july, ""), &count)
	assert.Equal(t, 2, count.Count)
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/count?contract=B&"+july, ""), &count)
	assert.Equal(t, 0, count.Count)

	var sum SumResult
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/sum", ""), &sum)
	assert.Equal(t, "1234.56", sum.Sum.String(), "the malformed amount adds nothing")
	assert.Equal(t, "R$ 1.234,56", sum.Display)

	var status StatusResult
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/status", ""), &status)
	assert.Equal(t, 2, status.Breakdown.Open)
	assert.Equal(t, 1, status.Breakdown.Closed)
	assert.InDelta(t, 33.33, status.Completion.Percentage, 0.01)

	var periods []struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/periods?granularity=month", ""), &periods)
	require.Len(t, periods, 2)
	assert.Equal(t, "2024-06", periods[0].Key)
	assert.Equal(t, 2, periods[1].Count)

	var dims DimensionResult
	decodeData(t, do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/dimensions?dimension=OR%C3%87AMENTISTA", ""), &dims)
	require.Len(t, dims.Buckets, 2)
	assert.Equal(t, "ANA", dims.Buckets[0].Key)

	rec := do(t, app, http.MethodGet, "/v1/sheets/banrisul/metrics/dimensions?dimension=DISCIPLINAS&measure=VALOR+OR%C3%87ADO&aggregation=sum&format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "DISCIPLINAS,sum", lines[0])
	assert.Equal(t, "ELÉTRICA,1234.56", lines[1])
}

func TestPanelEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	var daily struct {
		Day       string `json:"day"`
		Contracts []struct {
			ReceivedOnDay int `json:"received_on_day"`
		} `json:"contracts"`
		Rows []map[string]string `json:"rows"`
	}
	rec := do(t, app, http.MethodGet, "/v1/sheets/banrisul/panels/daily?day=2024-07-10&start_date=2024-07-01&end_date=2024-07-31&include_rows=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &daily)
	assert.Equal(t, "2024-07-10", daily.Day)
	require.Len(t, daily.Contracts, 2)
	assert.Equal(t, 1, daily.Contracts[0].ReceivedOnDay)
	assert.Len(t, daily.Rows, 2)
}

func TestDatabaseSourceMatchesSheet(t *testing.T) {
	app, _ := newTestApp(t)
	target := "/v1/sheets/sop/panels/overview?start_date=2024-07-01&end_date=2024-07-31"

	type overview struct {
		Received       int `json:"received"`
		Classification struct {
			Open   int `json:"open"`
			Closed int `json:"closed"`
		} `json:"classification"`
		Disciplines []struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
		} `json:"disciplines"`
	}
	var live overview
	rec := do(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &live)
	require.Equal(t, 3, live.Received)
	require.Equal(t, 1, live.Classification.Open)
	require.Equal(t, 2, live.Classification.Closed)

	sheet, ok := app.sheets.Sheet("sop")
	require.True(t, ok)
	ds, _, err := app.loader.Load(context.Background(), sheet)
	require.NoError(t, err)
	orders := &fakeOrders{
		records: map[string][]types.Record{"sop": types.ToRecords(ds, "sop")},
		columns: map[string][]string{"sop": types.StoredColumns(ds)},
	}
	app.loader = dbLoader{orders: orders}

	var stored overview
	rec = do(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeData(t, rec, &stored)
	assert.Equal(t, live, stored)

	rec = do(t, app, http.MethodGet, "/v1/sheets/sop/metrics/count?date_field=DATA+RECEBIDO", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "a column the sheet never had is not read as zero")
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, "/v1/sheets/banrisul/panels/overview", "").Code,
		"a sheet the ETL never stored")
}

func TestIngestionEndpoints(t *testing.T) {
	app, history := newTestApp(t)

	rec := do(t, app, http.MethodPost, "/v1/ingestion", `{"sheet":"banrisul","reference_date":"2024-07-10","trigger_type":"manual"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, history.records, 1)
	assert.Equal(t, store.StatusInProgress, history.records[0].Status)
	assert.Len(t, history.records[0].RunID, 36)
	assert.True(t, strings.HasSuffix(history.records[0].SourceURL, "/banrisul.csv"))

	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, "/v1/ingestion", `{"sheet":"banrisul"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, "/v1/ingestion", `{"sheet":"banrisul","reference_date":"2024-07-10","trigger_type":"cron"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPost, "/v1/ingestion", `{"sheet":"nope","reference_date":"2024-07-10","trigger_type":"manual"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPost, "/v1/ingestion", `{"unknown":1}`).Code)

	rec = do(t, app, http.MethodPatch, "/v1/ingestion/1/status", `{"status":"success","rows_loaded":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, store.StatusSuccess, history.records[0].Status)
	assert.Equal(t, 3, history.records[0].RowsLoaded)

	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodPatch, "/v1/ingestion/9/status", `{"status":"failure"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPatch, "/v1/ingestion/1/status", `{"status":"IN_PROGRESS"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodPatch, "/v1/ingestion/x/status", `{"status":"success"}`).Code)

	var latest []store.IngestionHistory
	decodeData(t, do(t, app, http.MethodGet, "/v1/ingestion/history?limit=5", ""), &latest)
	assert.Len(t, latest, 1)

	app.store = store.Storage{}
	assert.Equal(t, http.StatusServiceUnavailable, do(t, app, http.MethodGet, "/v1/ingestion/history", "").Code)
}

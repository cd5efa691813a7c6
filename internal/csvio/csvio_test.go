package csvio

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mgalvez/undiacomohoy/internal/diary"
	"github.com/mgalvez/undiacomohoy/internal/storage/sqlite"
	"github.com/mgalvez/undiacomohoy/pkg/types"
)

// newEmptyStore builds an initialised diary with the samples cleared.
func newEmptyStore(t *testing.T) *diary.Store {
	t.Helper()
	kv, err := sqlite.NewKVStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	s := diary.New(kv)
	ctx := context.Background()
	if err := s.InitializeIfFirstRun(ctx, nil); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := s.ClearSampleMemories(ctx); err != nil {
		t.Fatalf("clear samples failed: %v", err)
	}
	return s
}

func TestImportTextRowProperty(t *testing.T) {
	s := newEmptyStore(t)
	ctx := context.Background()

	res, err := Import(ctx, s, strings.NewReader(`2020,03,14,Texto,"Hello, world",`+"\n"))
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Imported != 1 || res.Errors != 0 {
		t.Fatalf("result: %+v", res)
	}

	list, err := s.ListMemories(ctx, "03-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d memories, want 1", len(list))
	}
	m := list[0]
	if m.OriginalDate.Year != 2020 {
		t.Errorf("year: got %d, want 2020", m.OriginalDate.Year)
	}
	if m.Kind != types.KindText {
		t.Errorf("kind: got %q, want %q", m.Kind, types.KindText)
	}
	if m.Text == nil || m.Text.Description != "Hello, world" {
		t.Errorf("description: got %+v", m.Text)
	}
}

func TestRoundTripReproducesContent(t *testing.T) {
	src := newEmptyStore(t)
	ctx := context.Background()

	if err := src.RenameDay(ctx, "02-14", "San Valentín"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateOrUpdateMemory(ctx, "02-14", diary.MemoryDraft{
		Kind: types.KindText, Year: 2001,
		Text: &types.TextPayload{Description: "Cena con \"La Cuchara\", el restaurante\nde la esquina"},
	}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateOrUpdateMemory(ctx, "07-20", diary.MemoryDraft{
		Kind: types.KindPlace, Year: 2010,
		Place: &types.PlacePayload{Name: "Cabo Cañaveral", Lat: 28.3922, Lon: -80.6077, DisplayName: "Cape Canaveral, Florida"},
	}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateOrUpdateMemory(ctx, "09-28", diary.MemoryDraft{
		Kind: types.KindSong, Year: 1995,
		Song: &types.SongPayload{TrackSummary: "Wonderwall — Oasis", TrackName: "Wonderwall", ArtistName: "Oasis", ArtworkURL: "https://example.com/art.jpg"},
	}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := src.CreateOrUpdateMemory(ctx, "12-31", diary.MemoryDraft{
		Kind: types.KindImage, Year: 1999,
		Image: &types.ImagePayload{Description: "Fin de milenio", Ref: "https://example.com/fiesta.jpg"},
	}, ""); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, src, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "AÑO,MES,DÍA,TIPO,CONTENIDO,DATOS_EXTRA") {
		t.Fatalf("header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	dst := newEmptyStore(t)
	res, err := Import(ctx, dst, &buf)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Errors != 0 {
		t.Fatalf("round trip produced %d row errors", res.Errors)
	}
	if res.Imported != 5 { // 1 day name + 4 memories
		t.Fatalf("imported %d rows, want 5", res.Imported)
	}

	day, err := dst.GetDay(ctx, "02-14")
	if err != nil {
		t.Fatal(err)
	}
	if day.SpecialName != "San Valentín" {
		t.Errorf("day name: got %q", day.SpecialName)
	}

	text, _ := dst.ListMemories(ctx, "02-14")
	if len(text) != 1 || text[0].Text.Description != "Cena con \"La Cuchara\", el restaurante\nde la esquina" {
		t.Errorf("text memory did not survive quoting: %+v", text)
	}

	place, _ := dst.ListMemories(ctx, "07-20")
	if len(place) != 1 || place[0].Place == nil {
		t.Fatalf("place memory missing: %+v", place)
	}
	if place[0].Place.Lat != 28.3922 || place[0].Place.Lon != -80.6077 {
		t.Errorf("coordinates: got %+v", place[0].Place)
	}
	if place[0].Place.DisplayName != "Cape Canaveral, Florida" {
		t.Errorf("display name: got %q", place[0].Place.DisplayName)
	}

	song, _ := dst.ListMemories(ctx, "09-28")
	if len(song) != 1 || song[0].Song == nil {
		t.Fatalf("song memory missing: %+v", song)
	}
	if song[0].Song.TrackSummary != "Wonderwall — Oasis" || song[0].Song.ArtistName != "Oasis" {
		t.Errorf("song fields: got %+v", song[0].Song)
	}
	if song[0].Song.ArtworkURL != "https://example.com/art.jpg" {
		t.Errorf("artwork: got %q", song[0].Song.ArtworkURL)
	}

	image, _ := dst.ListMemories(ctx, "12-31")
	if len(image) != 1 || image[0].Image == nil {
		t.Fatalf("image memory missing: %+v", image)
	}
	if image[0].Image.Ref != "https://example.com/fiesta.jpg" {
		t.Errorf("image ref: got %q", image[0].Image.Ref)
	}
}

func TestImportIsolatesRowErrors(t *testing.T) {
	s := newEmptyStore(t)
	ctx := context.Background()

	csvData := strings.Join([]string{
		"AÑO,MES,DÍA,TIPO,CONTENIDO,DATOS_EXTRA", // header, skipped
		"2020,1,1,Texto,bien,",                   // ok
		"2020,13,1,Texto,mes fuera de rango,",    // month out of range
		"2020,1,32,Texto,día fuera de rango,",    // day out of range
		"1800,1,1,Texto,año fuera de rango,",     // year out of range
		"2020,1,1,Cosa,tipo desconocido,",        // unknown type
		"corto,fila",                             // too few fields
		"2020,2,30,Texto,fecha imposible,",       // Feb 30: passes range check, no such day slot
		",3,14,Nombre,Día de Pi,",                // day rename
	}, "\n")

	res, err := Import(ctx, s, strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("imported: got %d, want 2", res.Imported)
	}
	if res.Errors != 6 {
		t.Errorf("errors: got %d, want 6", res.Errors)
	}

	day, err := s.GetDay(ctx, "03-14")
	if err != nil {
		t.Fatal(err)
	}
	if day.SpecialName != "Día de Pi" {
		t.Errorf("renamed day: got %q", day.SpecialName)
	}
}

func TestImportToleratesMalformedExtras(t *testing.T) {
	s := newEmptyStore(t)
	ctx := context.Background()

	res, err := Import(ctx, s, strings.NewReader(
		"2015,6,16,Lugar,Plaza Mayor,\"{not valid json\"\n"))
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Imported != 1 || res.Errors != 0 {
		t.Fatalf("malformed extras must not fail the row: %+v", res)
	}

	list, _ := s.ListMemories(ctx, "06-16")
	if len(list) != 1 || list[0].Place == nil {
		t.Fatalf("place row missing: %+v", list)
	}
	if list[0].Place.Name != "Plaza Mayor" {
		t.Errorf("name: got %q", list[0].Place.Name)
	}
	if list[0].Place.Lat != 0 || list[0].Place.DisplayName != "" {
		t.Errorf("extras should be omitted: %+v", list[0].Place)
	}
}

func TestExportSurvivesStaleDayFlag(t *testing.T) {
	kv, err := sqlite.NewKVStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create kv store: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	s := diary.New(kv)
	ctx := context.Background()
	if err := s.InitializeIfFirstRun(ctx, nil); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if _, err := s.ClearSampleMemories(ctx); err != nil {
		t.Fatalf("clear samples failed: %v", err)
	}

	if _, err := s.CreateOrUpdateMemory(ctx, "05-05", diary.MemoryDraft{
		Kind: types.KindText, Year: 2012,
		Text: &types.TextPayload{Description: "flag perdido"},
	}, ""); err != nil {
		t.Fatal(err)
	}

	// Corrupt the HasMemories cache behind the store's back; the export
	// must still find the memory in the collection itself.
	raw, ok, err := kv.Get(ctx, diary.KeyDays)
	if err != nil || !ok {
		t.Fatalf("days key missing: ok=%v err=%v", ok, err)
	}
	var days map[string]types.Day
	if err := json.Unmarshal(raw, &days); err != nil {
		t.Fatal(err)
	}
	day := days["05-05"]
	day.HasMemories = false
	days["05-05"] = day
	stale, err := json.Marshal(days)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, diary.KeyDays, stale); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Export(ctx, s, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "flag perdido") {
		t.Error("memory dropped from export because of a stale HasMemories flag")
	}
}

func TestImportTwiceDuplicates(t *testing.T) {
	s := newEmptyStore(t)
	ctx := context.Background()

	row := "1990,4,15,Texto,repetido,\n"
	for i := 0; i < 2; i++ {
		if _, err := Import(ctx, s, strings.NewReader(row)); err != nil {
			t.Fatalf("Import() %d failed: %v", i, err)
		}
	}

	list, _ := s.ListMemories(ctx, "04-15")
	if len(list) != 2 {
		t.Fatalf("got %d memories after double import, want 2 (additive, no dedup)", len(list))
	}
	if list[0].ID == list[1].ID {
		t.Error("duplicate import reused a memory id")
	}

	day, _ := s.GetDay(ctx, "04-15")
	if !day.HasMemories {
		t.Error("HasMemories lost after repeated import")
	}
}

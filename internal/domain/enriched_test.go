package domain

import (
	"encoding/json"
	"testing"
)

func TestEnriched_MarshalUnknownAsNull(t *testing.T) {
	m := TokenMetrics{Mint: "MintA", Holders: Known(120)}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["holders"]) != "120" {
		t.Errorf("holders = %s, want 120", raw["holders"])
	}
	if string(raw["top_holder_concentration"]) != "null" {
		t.Errorf("top_holder_concentration = %s, want null", raw["top_holder_concentration"])
	}
	if string(raw["mint_authority"]) != "null" {
		t.Errorf("mint_authority = %s, want null", raw["mint_authority"])
	}
}

func TestEnriched_UnmarshalNull(t *testing.T) {
	e := Known(7)
	if err := json.Unmarshal([]byte("null"), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Known || e.Value != 0 {
		t.Errorf("got %+v, want unknown zero value", e)
	}

	var b Enriched[bool]
	if err := json.Unmarshal([]byte("false"), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !b.Known || b.Value {
		t.Errorf("got %+v, want known false", b)
	}
}

func TestWithHolders_MergesKnownOnly(t *testing.T) {
	base := TokenMetrics{
		Holders:         Known(50),
		MintAuthority:   Known(true),
		FreezeAuthority: Known(false),
	}

	got := base.WithHolders(HolderStats{
		Holders:       Known(200),
		Concentration: Known(31.5),
	})

	if got.Holders.Value != 200 {
		t.Errorf("holders = %d, want 200", got.Holders.Value)
	}
	if !got.TopHolderConcentration.Known || got.TopHolderConcentration.Value != 31.5 {
		t.Errorf("concentration = %+v, want known 31.5", got.TopHolderConcentration)
	}
	if !got.MintAuthority.Known || !got.MintAuthority.Value {
		t.Errorf("mint authority overwritten by unknown stats: %+v", got.MintAuthority)
	}
	if base.Holders.Value != 50 {
		t.Errorf("receiver modified: holders = %d", base.Holders.Value)
	}
}

package main

import (
	"bytes"
	"testing"

	"ha_location_proxy/internal/models"

	"github.com/spf13/pflag"
)

func TestFetchOverrides_OnlyChangedFlags(t *testing.T) {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	fs.String("base-url", "", "")
	fs.String("token", "", "")
	fs.String("entity", "", "")

	if err := fs.Parse([]string{"--entity", "device_tracker.car", "--token", ""}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	p := fetchOverrides(fs)
	if p.BaseURL != nil {
		t.Fatalf("base url should not be overridden: %q", *p.BaseURL)
	}
	if p.EntityID == nil || *p.EntityID != "device_tracker.car" {
		t.Fatalf("entity=%v", p.EntityID)
	}
	if p.Token == nil || *p.Token != "" {
		t.Fatalf("explicit empty token should override: %v", p.Token)
	}
}

func TestPrintRefresh(t *testing.T) {
	lat, lon, name := 44.5, -99.2, "Car"
	tests := []struct {
		name string
		res  models.RefreshResult
		want string
	}{
		{
			name: "ok with coordinates",
			res: models.RefreshResult{Label: "OK", Attributes: &models.EntityAttributes{
				Latitude: &lat, Longitude: &lon, FriendlyName: &name,
			}},
			want: "OK\nlatitude=44.5 longitude=-99.2 altitude=0\nname=Car\n",
		},
		{
			name: "failure label only",
			res:  models.RefreshResult{Label: "Unauthorized"},
			want: "Unauthorized\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printRefresh(&buf, tt.res)
			if buf.String() != tt.want {
				t.Fatalf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestConfigOverrides_FillOnlyBlankStoredValues(t *testing.T) {
	stored := models.Settings{BaseURL: "http://stored:8123", EntityID: "  "}
	seed := models.Settings{BaseURL: "http://config:8123", Token: "cfg-token", EntityID: "device_tracker.car"}

	p := configOverrides(stored, seed)
	if p.BaseURL != nil {
		t.Fatalf("stored base url must win, got override %q", *p.BaseURL)
	}
	if p.Token == nil || *p.Token != "cfg-token" {
		t.Fatalf("token=%v", p.Token)
	}
	if p.EntityID == nil || *p.EntityID != "device_tracker.car" {
		t.Fatalf("entity=%v", p.EntityID)
	}

	if p := configOverrides(models.Settings{}, models.Settings{}); p.BaseURL != nil || p.Token != nil || p.EntityID != nil {
		t.Fatalf("empty config should not override: %+v", p)
	}
}

func TestMergeOverrides_FlagsWin(t *testing.T) {
	cfgToken, cfgEntity, flagEntity := "cfg-token", "person.config", "device_tracker.flag"
	dst := models.SettingsPatch{Token: &cfgToken, EntityID: &cfgEntity}

	mergeOverrides(&dst, models.SettingsPatch{EntityID: &flagEntity})

	if dst.Token == nil || *dst.Token != cfgToken {
		t.Fatalf("token=%v, want config value kept", dst.Token)
	}
	if dst.EntityID == nil || *dst.EntityID != flagEntity {
		t.Fatalf("entity=%v, want flag value", dst.EntityID)
	}
	if dst.BaseURL != nil {
		t.Fatalf("base url=%q, want untouched", *dst.BaseURL)
	}
}

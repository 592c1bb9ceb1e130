package parse

import (
	"strings"
	"testing"

	"github.com/franz/media-tracker/internal/media"
)

func TestAnimeParse(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  media.Titles
	}{
		{
			name:  "unbracketed english with chinese and noise",
			entry: "[合集][葬送的芙莉莲] Frieren: Beyond Journey's End [1080p][BDRip]",
			want: media.Titles{
				English: "Frieren: Beyond Journey's End",
				Romaji:  "Frieren: Beyond Journey's End",
				Chinese: "葬送的芙莉莲",
			},
		},
		{
			name:  "classic four bracket layout",
			entry: "[进击的巨人][Shingeki no Kyojin][進撃の巨人][BDRip 1080p x265]",
			want: media.Titles{
				English:  "Shingeki no Kyojin",
				Romaji:   "Shingeki no Kyojin",
				Japanese: "進撃の巨人",
				Chinese:  "进击的巨人",
			},
		},
		{
			name:  "bracket order is not trusted",
			entry: "[Shingeki no Kyojin][進撃の巨人][进击的巨人]",
			want: media.Titles{
				English:  "Shingeki no Kyojin",
				Romaji:   "Shingeki no Kyojin",
				Japanese: "進撃の巨人",
				Chinese:  "进击的巨人",
			},
		},
		{
			name:  "ambiguous markers discarded",
			entry: "[Made in Abyss][OVA][Movie 2]",
			want:  media.Titles{English: "Made in Abyss", Romaji: "Made in Abyss"},
		},
		{
			name:  "trailing resolution tolerated then stripped",
			entry: "[Sword Art Online 1080p]",
			want:  media.Titles{English: "Sword Art Online", Romaji: "Sword Art Online"},
		},
		{
			name:  "trailing volume counter stripped",
			entry: "[Attack on Titan Season 3 Vol 2]",
			want:  media.Titles{English: "Attack on Titan Season 3", Romaji: "Attack on Titan Season 3"},
		},
		{
			name:  "uploader suffix stripped",
			entry: "[Kimi no Na wa @someone]",
			want:  media.Titles{English: "Kimi no Na wa", Romaji: "Kimi no Na wa"},
		},
		{
			name:  "group suffix stripped",
			entry: "[Frieren - SweetSub][1080p]",
			want:  media.Titles{English: "Frieren", Romaji: "Frieren"},
		},
		{
			name:  "camel case group tag stripped",
			entry: "[Cowboy Bebop HorribleSubs][BDRip]",
			want:  media.Titles{English: "Cowboy Bebop", Romaji: "Cowboy Bebop"},
		},
		{
			name:  "title words ending in raw or sub kept",
			entry: "[Quick Draw McGraw][BDRip]",
			want:  media.Titles{English: "Quick Draw McGraw", Romaji: "Quick Draw McGraw"},
		},
		{
			name:  "volume counter glued to its number stripped",
			entry: "[Mobile Suit Gundam Vol.1-10][DVDRip]",
			want:  media.Titles{English: "Mobile Suit Gundam", Romaji: "Mobile Suit Gundam"},
		},
		{
			name:  "longest latin segment wins",
			entry: "[AoT][Attack on Titan][進撃の巨人]",
			want: media.Titles{
				English:  "Attack on Titan",
				Romaji:   "Attack on Titan",
				Japanese: "進撃の巨人",
			},
		},
		{
			name:  "japanese annotation removed",
			entry: "[葬送のフリーレン 内封字幕]",
			want:  media.Titles{Japanese: "葬送のフリーレン"},
		},
		{
			name:  "chinese kept raw",
			entry: "[葬送的芙莉莲 第一季]",
			want:  media.Titles{Chinese: "葬送的芙莉莲 第一季"},
		},
		{
			name:  "year is reported but kept in the title",
			entry: "[Kimi no Na wa (2016)]",
			want:  media.Titles{English: "Kimi no Na wa (2016)", Romaji: "Kimi no Na wa (2016)", Year: "2016"},
		},
		{
			name:  "no brackets uses separator fallback",
			entry: "Cowboy Bebop - 1080p BluRay",
			want:  media.Titles{English: "Cowboy Bebop", Romaji: "Cowboy Bebop"},
		},
		{
			name:  "dotted release name",
			entry: "Frieren.S01.1080p.BluRay.x265",
			want:  media.Titles{English: "Frieren S01", Romaji: "Frieren S01"},
		},
		{
			name:  "only technical brackets",
			entry: "[1080p][BDRip]",
			want:  media.Titles{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnimeParser{}.Parse(tt.entry)
			if got != tt.want {
				t.Errorf("Parse(%q)\n got  %+v\n want %+v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestAnimeParseLongUnbracketedEntryIsEmpty(t *testing.T) {
	for _, n := range []int{100, 120, 250} {
		entry := strings.Repeat("a", n/2) + " " + strings.Repeat("b", n-n/2-1)
		got := AnimeParser{}.Parse(entry)
		if !got.Empty() {
			t.Errorf("entry of %d chars should yield no titles, got %+v", n, got)
		}
	}

	short := strings.Repeat("x", 98)
	if (AnimeParser{}).Parse(short).Empty() {
		t.Error("entry under 100 chars should still be used")
	}
}

func TestSegments(t *testing.T) {
	segs := AnimeParser{}.Segments("[合集][葬送的芙莉莲] Frieren [1080p]")
	want := []struct {
		text   string
		script Script
	}{
		{"合集", ScriptNoise},
		{"葬送的芙莉莲", ScriptChinese},
		{"Frieren", ScriptLatin},
		{"1080p", ScriptNoise},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %+v", len(want), segs)
	}
	for i, w := range want {
		if segs[i].Text != w.text || segs[i].Script != w.script {
			t.Errorf("segment %d = %+v, want %q/%s", i, segs[i], w.text, w.script)
		}
	}
	if !segs[0].Bracketed || segs[2].Bracketed {
		t.Errorf("bracket flags wrong: %+v", segs)
	}
}

func TestIsTechnical(t *testing.T) {
	tests := []struct {
		segment string
		want    bool
	}{
		{"1080p", true},
		{"BDRip", true},
		{"BDRip 1080p x265", true},
		{"合集", true},
		{"OVA", true},
		{"OVA 1-3", true},
		{"TV", true},
		{"Vol.3", true},
		{"BD×3", true},
		{"@uploader", true},
		{"(Nekomoe)", true},
		{"Part 2", true},
		{"Set 1", true},
		{"2019", true},
		{"x", true},
		{"Frieren", false},
		{"Attack on Titan", false},
		{"Attack on Titan Part 2", false},
		{"Special Edition", false},
		{"Sword Art Online 1080p", false},
		{"葬送的芙莉莲", false},
	}
	for _, tt := range tests {
		if got := IsTechnical(tt.segment); got != tt.want {
			t.Errorf("IsTechnical(%q) = %v, want %v", tt.segment, got, tt.want)
		}
	}
}

func TestMovieParse(t *testing.T) {
	tests := []struct {
		entry string
		title string
		year  string
	}{
		{"The Matrix (1999)", "The Matrix", "1999"},
		{"Heat 1995", "Heat", "1995"},
		{"  Alien   ", "Alien", ""},
		{"Blade Runner 2049", "Blade Runner 2049", ""},
		{"Metropolis (1927)", "Metropolis (1927)", ""},
		{"2012", "2012", ""},
		{"2001: A Space Odyssey (1968)", "2001: A Space Odyssey", "1968"},
	}
	for _, tt := range tests {
		got := MovieParser{}.Parse(tt.entry)
		if got.Title != tt.title || got.Year != tt.year {
			t.Errorf("Parse(%q) = %q/%q, want %q/%q", tt.entry, got.Title, got.Year, tt.title, tt.year)
		}
	}
}

func TestForKind(t *testing.T) {
	if _, ok := ForKind(media.KindAnime).(AnimeParser); !ok {
		t.Error("anime should use AnimeParser")
	}
	for _, k := range []media.Kind{media.KindMovie, media.KindTV} {
		if _, ok := ForKind(k).(MovieParser); !ok {
			t.Errorf("%s should use MovieParser", k)
		}
	}
}

package vfat

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestEntry_FileInfo(t *testing.T) {
	entry := Entry{
		Name:      "HelloWorldThisIsALoongFileName.txt",
		ShortName: "HELLOW~1.TXT",
		Size:      9,
		Cluster:   5,
		Attribute: AttrArchive,
		ModTime:   time.Date(2020, 5, 17, 13, 45, 30, 0, time.UTC),
	}

	want := entryFileInfo{entry: entry}
	if got := entry.FileInfo(); !reflect.DeepEqual(got, want) {
		t.Errorf("Entry.FileInfo() = %v, want %v", got, want)
	}
}

func Test_entryFileInfo_Name(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "only 8.3 filename",
			entry: Entry{Name: "HELLO.TXT", ShortName: "HELLO.TXT"},
			want:  "HELLO.TXT",
		},
		{
			name:  "with long filename",
			entry: Entry{Name: "HelloWorldThisIsALoongFileName.txt", ShortName: "HELLOW~1.TXT"},
			want:  "HelloWorldThisIsALoongFileName.txt",
		},
		{
			name:  "root",
			entry: Entry{Name: rootName, IsDir: true},
			want:  "/",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo().Name(); got != tt.want {
				t.Errorf("entryFileInfo.Name() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Size(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  int64
	}{
		{name: "some size", entry: Entry{Size: 5555}, want: 5555},
		{name: "zero size", entry: Entry{Size: 0}, want: 0},
		{name: "largest FAT32 file", entry: Entry{Size: 0xFFFFFFFF}, want: 4294967295},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo().Size(); got != tt.want {
				t.Errorf("entryFileInfo.Size() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Mode(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  os.FileMode
	}{
		{
			name:  "file",
			entry: Entry{Attribute: AttrArchive},
			want:  0777,
		},
		{
			name:  "read only file",
			entry: Entry{Attribute: AttrReadOnly | AttrArchive},
			want:  0555,
		},
		{
			name:  "directory",
			entry: Entry{IsDir: true, Attribute: AttrDirectory},
			want:  os.ModeDir | 0777,
		},
		{
			name:  "read only directory",
			entry: Entry{IsDir: true, Attribute: AttrDirectory | AttrReadOnly},
			want:  os.ModeDir | 0555,
		},
		{
			name:  "hidden system file",
			entry: Entry{Attribute: AttrHidden | AttrSystem},
			want:  0777,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo().Mode(); got != tt.want {
				t.Errorf("entryFileInfo.Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_ModTime(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  time.Time
	}{
		{
			name:  "some time",
			entry: Entry{ModTime: time.Date(2020, 5, 17, 13, 45, 30, 0, time.UTC)},
			want:  time.Date(2020, 5, 17, 13, 45, 30, 0, time.UTC),
		},
		{
			name:  "invalid date",
			entry: Entry{},
			want:  time.Time{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo().ModTime(); !got.Equal(tt.want) {
				t.Errorf("entryFileInfo.ModTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_IsDir(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{name: "directory", entry: Entry{IsDir: true, Attribute: AttrDirectory}, want: true},
		{name: "file", entry: Entry{Attribute: AttrArchive}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.FileInfo().IsDir(); got != tt.want {
				t.Errorf("entryFileInfo.IsDir() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_entryFileInfo_Sys(t *testing.T) {
	entry := Entry{Name: "A.TXT", Cluster: 7, Uid: 1000, Gid: 100}

	got, ok := entry.FileInfo().Sys().(Entry)
	if !ok {
		t.Fatalf("entryFileInfo.Sys() = %T, want Entry", entry.FileInfo().Sys())
	}
	if !reflect.DeepEqual(got, entry) {
		t.Errorf("entryFileInfo.Sys() = %v, want %v", got, entry)
	}
}

package remarkable

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	// DocumentType marks a metadata descriptor as a document rather than a folder
	DocumentType = "DocumentType"
	// TrashParent is the reserved parent identifier of deleted items
	TrashParent = "trash"
	// NotebookFileType marks handwritten notebooks in the content descriptor (PDF and EPUB imports differ)
	NotebookFileType = "notebook"

	metadataExt = ".metadata"
	contentExt  = ".content"
	strokeExt   = ".rm"

	unnamed = "(unnamed)"
)

// Notebook is a handwritten notebook found in the document store.
type Notebook struct {
	ID               string
	Name             string
	Parent           string
	CreatedMs        int64
	ModifiedMs       int64
	PageCount        int // pages declared in the content descriptor
	ContentPageCount int // declared pages that have a stroke file on disk
}

// Created returns the creation time, or the zero time when unknown.
func (n *Notebook) Created() time.Time {
	return msToTime(n.CreatedMs)
}

// Modified returns the last modification time, or the zero time when unknown.
func (n *Notebook) Modified() time.Time {
	return msToTime(n.ModifiedMs)
}

// Page is one entry of a notebook's declared page list.
type Page struct {
	ID         string
	ModifiedMs int64 // 0 when the descriptor carries no usable timestamp
}

// Modified returns the declared modification time, or the zero time when unknown.
func (p Page) Modified() time.Time {
	return msToTime(p.ModifiedMs)
}

func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// metadata is the <id>.metadata descriptor.
type metadata struct {
	Type         string     `json:"type"`
	Parent       string     `json:"parent"`
	VisibleName  *string    `json:"visibleName"`
	CreatedTime  flexString `json:"createdTime"`
	LastModified flexString `json:"lastModified"`
}

func (m *metadata) name() string {
	if m.VisibleName == nil {
		return unnamed
	}
	return *m.VisibleName
}

// content is the <id>.content descriptor. cPages is decoded lazily because
// older files carry other shapes there.
type content struct {
	FileType string          `json:"fileType"`
	CPages   json.RawMessage `json:"cPages"`
}

// contentPage is one entry of cPages.pages. The app writes the page
// timestamp under the misspelled "modifed" key; "modified" is the fallback.
type contentPage struct {
	ID       *string         `json:"id"`
	Modifed  json.RawMessage `json:"modifed"`
	Modified json.RawMessage `json:"modified"`
}

func (p *contentPage) modifiedMs() int64 {
	if p.Modifed != nil {
		return parseMs(p.Modifed)
	}
	if p.Modified != nil {
		return parseMs(p.Modified)
	}
	return 0
}

// rawPages returns the entries of cPages.pages, or nil when cPages is not an
// object holding a pages list.
func (c *content) rawPages() []json.RawMessage {
	if len(c.CPages) == 0 {
		return nil
	}
	var cp struct {
		Pages []json.RawMessage `json:"pages"`
	}
	if err := json.Unmarshal(c.CPages, &cp); err != nil {
		return nil
	}
	return cp.Pages
}

// pages decodes the page entries that are objects, in declared order.
func (c *content) pages() []contentPage {
	raw := c.rawPages()
	pages := make([]contentPage, 0, len(raw))
	for _, r := range raw {
		var p contentPage
		if err := json.Unmarshal(r, &p); err != nil {
			continue
		}
		pages = append(pages, p)
	}
	return pages
}

// parseMs reads an epoch-millisecond value stored either as a JSON string or
// a JSON number. Anything else yields 0.
func parseMs(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	} else {
		s = string(raw)
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) ms() int64 {
	ms, err := strconv.ParseInt(strings.TrimSpace(string(f)), 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

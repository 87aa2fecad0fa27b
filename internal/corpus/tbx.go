package corpus

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nerdneilsfield/go-translator-workbench/internal/document"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/langtag"
	"github.com/nerdneilsfield/go-translator-workbench/pkg/termbase"
)

const (
	tbxNamespace   = "urn:iso:std:iso:30042:ed-2"
	tbxIDMarker    = "Workbench ID:"
	untitledTBX    = "Untitled TBX File"
	tbxCoreDialect = "TBX-Core"
)

// ParseTBX 读取 TBX-Core（tbx/conceptEntry）或旧版 martif（termEntry）术语库
// 语言标签统一为基础语言
func ParseTBX(data []byte) (*termbase.Base, error) {
	tree, root, err := parse(data)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(tree.LocalName(root)) {
	case "tbx":
		return parseTBXCore(tree, root)
	case "martif":
		return parseMartif(tree, root)
	default:
		return nil, invalid("root element is <%s>, want <tbx> or <martif>", tree.Nodes[root].Name)
	}
}

func parseTBXCore(tree *document.XMLTree, root int) (*termbase.Base, error) {
	for _, a := range []string{"style", "type", "xml:lang"} {
		if attr(tree, root, a) == "" {
			return nil, invalid("tbx attribute %q is missing", a)
		}
	}
	header := tree.First(root, document.ByLocal("tbxHeader"))
	fileDesc := -1
	if header >= 0 {
		fileDesc = tree.First(header, document.ByLocal("fileDesc"))
	}
	if fileDesc < 0 {
		return nil, invalid("missing <tbxHeader>/<fileDesc>")
	}
	body := bodyOf(tree, root)
	if body < 0 {
		return nil, invalid("missing <text>/<body>")
	}

	b := &termbase.Base{Name: text(tree, tree.First(fileDesc, document.ByLocal("title")))}
	if b.Name == "" {
		b.Name = untitledTBX
	}
	b.ID = parseBaseID(text(tree, tree.First(fileDesc, document.ByLocal("sourceDesc"))))

	concepts := tree.FindAll(body, document.ByLocal("conceptEntry"))
	if len(concepts) == 0 {
		return nil, invalid("no <conceptEntry>")
	}
	for _, c := range concepts {
		entry := termbase.Entry{ID: conceptID(tree, c)}
		langSecs := tree.FindAll(c, document.ByLocal("langSec"))
		if len(langSecs) == 0 {
			return nil, invalid("conceptEntry %s has no <langSec>", entry.ID)
		}
		for _, ls := range langSecs {
			lang := langtag.Base(attr(tree, ls, "xml:lang"))
			termSecs := tree.FindAll(ls, document.ByLocal("termSec"))
			if len(termSecs) == 0 {
				return nil, invalid("langSec %s has no <termSec>", lang)
			}
			for _, ts := range termSecs {
				term := text(tree, tree.First(ts, document.ByLocal("term")))
				if term == "" {
					// 没有 term 时退回第一个 termNote
					term = text(tree, tree.First(ts, document.ByLocal("termNote")))
				}
				var notes []string
				for _, n := range tree.FindAll(ts, document.ByLocal("note")) {
					notes = append(notes, note("", text(tree, n)))
				}
				for _, n := range tree.FindAll(ts, document.ByLocal("termNote")) {
					notes = append(notes, note(attr(tree, n, "type"), text(tree, n)))
				}
				entry.Terms = append(entry.Terms, termbase.Term{Lang: lang, Term: term, Notes: notes})
			}
		}
		b.Entries = append(b.Entries, entry)
	}
	return b, nil
}

func parseMartif(tree *document.XMLTree, root int) (*termbase.Base, error) {
	if attr(tree, root, "xml:lang") == "" || attr(tree, root, "type") == "" {
		return nil, invalid("martif requires xml:lang and type")
	}
	body := bodyOf(tree, root)
	if body < 0 {
		return nil, invalid("missing <text>/<body>")
	}

	b := &termbase.Base{Name: text(tree, tree.First(root, document.ByLocal("title")))}
	if b.Name == "" {
		b.Name = untitledTBX
	}

	termEntries := tree.FindAll(body, document.ByLocal("termEntry"))
	if len(termEntries) == 0 {
		return nil, invalid("no <termEntry>")
	}
	for _, te := range termEntries {
		entry := termbase.Entry{ID: conceptID(tree, te)}
		langSets := tree.FindAll(te, document.ByLocal("langSet"))
		if len(langSets) == 0 {
			return nil, invalid("termEntry %s has no <langSet>", entry.ID)
		}
		for _, ls := range langSets {
			rawLang := attr(tree, ls, "xml:lang")
			if rawLang == "" {
				return nil, invalid("langSet without xml:lang in termEntry %s", entry.ID)
			}
			lang := langtag.Base(rawLang)

			var langNotes []string
			for _, d := range tree.FindAll(ls, document.ByLocal("descrip")) {
				langNotes = append(langNotes, note(attr(tree, d, "type"), text(tree, d)))
			}

			// tig，其次 ntig（Microsoft 导出），都没有时取裸 term
			tigs := tree.FindAll(ls, document.ByLocal("tig"))
			if len(tigs) == 0 {
				tigs = tree.FindAll(ls, document.ByLocal("ntig"))
			}
			if len(tigs) == 0 {
				for _, t := range tree.FindAll(ls, document.ByLocal("term")) {
					entry.Terms = append(entry.Terms, termbase.Term{
						Lang: lang, Term: text(tree, t), Notes: cloneNotes(langNotes),
					})
				}
				continue
			}

			for _, tig := range tigs {
				notes := cloneNotes(langNotes)
				for _, n := range tree.FindAll(tig, document.ByLocal("termNote")) {
					notes = append(notes, note(attr(tree, n, "type"), text(tree, n)))
				}
				for _, n := range tree.FindAll(tig, document.ByLocal("note")) {
					notes = append(notes, note("", text(tree, n)))
				}
				entry.Terms = append(entry.Terms, termbase.Term{
					Lang:  lang,
					Term:  text(tree, tree.First(tig, document.ByLocal("term"))),
					Notes: notes,
				})
			}
		}
		b.Entries = append(b.Entries, entry)
	}
	return b, nil
}

func bodyOf(tree *document.XMLTree, root int) int {
	txt := tree.First(root, document.ByLocal("text"))
	if txt < 0 {
		return -1
	}
	return tree.First(txt, document.ByLocal("body"))
}

// conceptID 使用文件中的 id，没有则生成
func conceptID(tree *document.XMLTree, i int) string {
	if id := attr(tree, i, "id"); id != "" {
		return id
	}
	return "C" + uuid.NewString()
}

// parseBaseID 从 sourceDesc 中读取 "Workbench ID: N"
func parseBaseID(desc string) int64 {
	idx := strings.Index(desc, tbxIDMarker)
	if idx < 0 {
		return 0
	}
	fields := strings.Fields(desc[idx+len(tbxIDMarker):])
	if len(fields) == 0 {
		return 0
	}
	id, _ := strconv.ParseInt(fields[0], 10, 64)
	return id
}

func note(typ, txt string) string {
	if typ == "" {
		return txt
	}
	return typ + ": " + txt
}

func cloneNotes(notes []string) []string {
	if len(notes) == 0 {
		return nil
	}
	out := make([]string, len(notes))
	copy(out, notes)
	return out
}

type tbxDoc struct {
	XMLName xml.Name     `xml:"tbx"`
	Xmlns   string       `xml:"xmlns,attr"`
	Style   string       `xml:"style,attr"`
	Type    string       `xml:"type,attr"`
	Lang    string       `xml:"xml:lang,attr"`
	Title   string       `xml:"tbxHeader>fileDesc>titleStmt>title"`
	Source  string       `xml:"tbxHeader>fileDesc>sourceDesc>p"`
	Entries []tbxConcept `xml:"text>body>conceptEntry"`
}

type tbxConcept struct {
	ID       string       `xml:"id,attr"`
	LangSecs []tbxLangSec `xml:"langSec"`
}

type tbxLangSec struct {
	Lang     string       `xml:"xml:lang,attr"`
	TermSecs []tbxTermSec `xml:"termSec"`
}

type tbxTermSec struct {
	Term  string   `xml:"term"`
	Notes []string `xml:"note"`
}

// EncodeTBX 生成 TBX-Core，同一语言的相邻术语放在同一个 langSec
func EncodeTBX(b *termbase.Base, sourceLang string) ([]byte, error) {
	doc := tbxDoc{
		Xmlns:  tbxNamespace,
		Style:  "dca",
		Type:   tbxCoreDialect,
		Lang:   sourceLang,
		Title:  b.Name,
		Source: tbxIDMarker + " " + strconv.FormatInt(b.ID, 10),
	}
	if doc.Title == "" {
		doc.Title = untitledTBX
	}
	if doc.Lang == "" {
		doc.Lang = "en"
	}

	for _, e := range b.Entries {
		id := e.ID
		if id == "" {
			id = "C" + uuid.NewString()
		}
		concept := tbxConcept{ID: id}
		for _, t := range e.Terms {
			n := len(concept.LangSecs)
			if n == 0 || concept.LangSecs[n-1].Lang != t.Lang {
				concept.LangSecs = append(concept.LangSecs, tbxLangSec{Lang: t.Lang})
				n++
			}
			ls := &concept.LangSecs[n-1]
			ls.TermSecs = append(ls.TermSecs, tbxTermSec{Term: t.Term, Notes: t.Notes})
		}
		doc.Entries = append(doc.Entries, concept)
	}
	return marshal(doc)
}

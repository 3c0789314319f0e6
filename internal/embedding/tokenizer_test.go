package embedding

import (
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("Yellow fever, Brazil", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths ids=%d attn=%d types=%d", len(ids), len(attn), len(types))
	}
	if ids[0] != tokenCLS {
		t.Errorf("expected CLS %d, got %d", tokenCLS, ids[0])
	}
	if ids[4] != tokenSEP {
		t.Errorf("expected SEP after 3 words, got %d", ids[4])
	}
	for i := 0; i < 5; i++ {
		if attn[i] != 1 {
			t.Errorf("attention[%d] should be 1", i)
		}
	}
	if attn[5] != 0 {
		t.Error("padding should not be attended")
	}
	if ids[1] != TokenID("yellow") {
		t.Error("words should be lowercased before hashing")
	}
}

func TestSimpleTokenizer_truncates(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, _, _ := tok.Tokenize("a b c d e f g h", 5)
	if ids[4] != tokenSEP {
		t.Errorf("last token should be SEP when truncated, got %d", ids[4])
	}
}

func TestTokenID(t *testing.T) {
	id := TokenID("vaccine")
	if id < vocabStart || id >= vocabSize {
		t.Errorf("TokenID out of range: %d", id)
	}
	if TokenID("vaccine") != id {
		t.Error("TokenID should be deterministic")
	}
}

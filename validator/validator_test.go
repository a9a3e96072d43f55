package validator

import "testing"

func TestContractNoConstraintsAlwaysAccepts(t *testing.T) {
	c := NewContract("empty")
	if !c.Validate("anything at all") {
		t.Fatal("unconstrained contract rejected output")
	}
	if !c.Validate("") {
		t.Fatal("unconstrained contract rejected empty output")
	}
}

func TestContractRegexFullMatch(t *testing.T) {
	c := NewContract("digits").MustWithRegex(`\d+`)
	if !c.Validate("12345") {
		t.Fatal("expected digits to validate")
	}
	if c.Validate("12345x") {
		t.Fatal("expected trailing non-digit to fail full-match")
	}
	if c.Validate("") {
		t.Fatal("expected empty string to fail \\d+ full-match")
	}
}

func TestContractRequiredKeys(t *testing.T) {
	c := NewContract("schema").WithRequired("name", "age")

	if !c.Validate(`{"name":"a","age":1}`) {
		t.Fatal("expected object with all required keys to validate")
	}
	if c.Validate(`{"name":"a"}`) {
		t.Fatal("expected missing key to reject")
	}
	if c.Validate(`["name","age"]`) {
		t.Fatal("expected non-object root to reject")
	}
	if c.Validate(`not json`) {
		t.Fatal("expected parse failure to reject")
	}
}

func TestContractRegexAndRequiredComposed(t *testing.T) {
	c := NewContract("both").WithRequired("ok")
	c, err := c.WithRegex(`\{.*\}`)
	if err != nil {
		t.Fatalf("WithRegex returned error: %v", err)
	}
	if !c.Validate(`{"ok":true}`) {
		t.Fatal("expected both checks to pass")
	}
	if c.Validate(`{"missing":true}`) {
		t.Fatal("expected required-key failure even though regex matches")
	}
}

func TestWithRegexInvalidPatternReturnsError(t *testing.T) {
	c := NewContract("bad")
	if _, err := c.WithRegex("("); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestValidFuncAdapter(t *testing.T) {
	var v Validator = ValidFunc(func(s string) bool { return s == "ok" })
	if !v.Validate("ok") {
		t.Fatal("expected ValidFunc adapter to accept \"ok\"")
	}
	if v.Validate("no") {
		t.Fatal("expected ValidFunc adapter to reject \"no\"")
	}
}

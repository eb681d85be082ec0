package cdp

import (
	"encoding/json"
	"fmt"
)

// jstr embeds a Go string as a JS string literal.
func jstr(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsVisible(sel string, nth int) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelectorAll(%s)[%d];
  if (!el) return false;
  const r = el.getBoundingClientRect();
  return r.width > 0 && r.height > 0;
})()`, jstr(sel), nth)
}

func jsEnabled(sel string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  return !!el && !el.disabled;
})()`, jstr(sel))
}

func jsClick(sel string, nth int) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelectorAll(%s)[%d];
  if (!el) return false;
  el.click();
  return true;
})()`, jstr(sel), nth)
}

// jsFill writes through the prototype value setter so framework-controlled
// inputs observe the change, then fires input/change.
func jsFill(sel, value string) string {
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return false;
  const proto = el.tagName === "TEXTAREA" ? HTMLTextAreaElement.prototype :
                el.tagName === "SELECT" ? HTMLSelectElement.prototype : HTMLInputElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, "value");
  if (desc && desc.set) { desc.set.call(el, %s); } else { el.value = %s; }
  el.dispatchEvent(new Event("input", { bubbles: true }));
  el.dispatchEvent(new Event("change", { bubbles: true }));
  return true;
})()`, jstr(sel), jstr(value), jstr(value))
}

func jsText(sel string, nth int) string {
	return fmt.Sprintf(`(() => {
  const els = document.querySelectorAll(%s);
  if (els.length <= %d) return null;
  return els[%d].innerText;
})()`, jstr(sel), nth, nth)
}

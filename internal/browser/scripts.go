package browser

const pointerBinding = "__readables_pointer"

// snapshotJS serialises document.body into the snapshot JSON shape without
// recursion.
const snapshotJS = `() => {
	if (!document.body) return "";
	const make = (el) => {
		const o = {tag: el.tagName.toLowerCase()};
		if (el.id) o.id = el.id;
		if (typeof el.className === "string" && el.className) o.class = el.className;
		return o;
	};
	const root = make(document.body);
	const stack = [[document.body, root]];
	while (stack.length) {
		const [el, out] = stack.pop();
		for (const c of el.childNodes) {
			if (c.nodeType === Node.TEXT_NODE) {
				(out.text = out.text || []).push(c.textContent);
			} else if (c.nodeType === Node.ELEMENT_NODE) {
				const o = make(c);
				(out.children = out.children || []).push(o);
				stack.push([c, o]);
			}
		}
	}
	return JSON.stringify(root);
}`

// resolveJS is shared by the measurement scripts: it walks element children
// from document.body along path.
const resolveJS = `
	let el = document.body;
	for (const i of path) {
		if (!el || !el.children[i]) return "";
		el = el.children[i];
	}
	if (!el) return "";
`

const boundsJS = `(path) => {` + resolveJS + `
	const r = el.getBoundingClientRect();
	return JSON.stringify({
		Left: r.left, Top: r.top, Width: r.width, Height: r.height,
		ScrollX: window.scrollX, ScrollY: window.scrollY,
	});
}`

// firstLineJS measures a Range that ends after a probe span inserted at the
// start of a hidden clone, then removes the clone.
const firstLineJS = `(path) => {` + resolveJS + `
	const clone = el.cloneNode(true);
	clone.style.position = "absolute";
	clone.style.visibility = "hidden";
	document.body.appendChild(clone);
	try {
		const probe = document.createElement("span");
		probe.textContent = " ";
		clone.insertBefore(probe, clone.firstChild);
		const range = document.createRange();
		range.setStart(clone, 0);
		range.setEndAfter(probe);
		return JSON.stringify({Height: range.getBoundingClientRect().height});
	} finally {
		document.body.removeChild(clone);
	}
}`

const installPointerJS = `() => {
	if (window.__readablesPointerListener) return;
	const send = window["` + pointerBinding + `"];
	window.__readablesPointerListener = (e) => send(JSON.stringify({x: e.pageX, y: e.pageY}));
	window.addEventListener("mousemove", window.__readablesPointerListener);
}`

const removePointerJS = `() => {
	if (!window.__readablesPointerListener) return;
	window.removeEventListener("mousemove", window.__readablesPointerListener);
	delete window.__readablesPointerListener;
}`

package server

import "html/template"

type indexData struct {
	Title string
}

// indexTemplate is the browser client. It draws JSON frames from the event
// stream and forwards pointer gestures; all layout happens server side.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    html, body { margin: 0; height: 100%; font-family: 'Helvetica Neue', Arial, sans-serif; }
    h1 { position: absolute; margin: 12px 16px; font-size: 18px; color: #333; pointer-events: none; }
    svg { width: 100vw; height: 100vh; display: block; }
    .node { cursor: grab; }
    .node:active { cursor: grabbing; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <svg id="surface" xmlns="http://www.w3.org/2000/svg">
    <defs></defs>
    <g class="links" fill="none" stroke-width="1.5"></g>
    <g class="link-labels" font-size="12px" text-anchor="middle"></g>
    <g class="nodes"></g>
  </svg>
  <script>
  (function () {
    const NS = "http://www.w3.org/2000/svg";
    const svg = document.getElementById("surface");
    const defs = svg.querySelector("defs");
    const links = svg.querySelector(".links");
    const labels = svg.querySelector(".link-labels");
    const nodes = svg.querySelector(".nodes");
    const nodeEls = new Map();
    const linkEls = new Map();
    let markerReady = false;
    let pending = Promise.resolve();

    // Gestures are posted strictly in order so the server never sees a
    // click before the drag end that precedes it.
    function post(path, body) {
      pending = pending.then(function () {
        return fetch(path, {
          method: "POST",
          headers: {"Content-Type": "application/json"},
          body: JSON.stringify(body)
        });
      }).catch(function () {});
      return pending;
    }

    function el(name, attrs) {
      const e = document.createElementNS(NS, name);
      for (const k in attrs) e.setAttribute(k, attrs[k]);
      return e;
    }

    function ensureMarker(m) {
      if (markerReady) return;
      const marker = el("marker", {
        id: m.id, viewBox: m.viewBox, refX: m.refX, refY: m.refY,
        markerWidth: m.width, markerHeight: m.height, orient: "auto"
      });
      marker.appendChild(el("path", {fill: "#999", d: m.path}));
      defs.appendChild(marker);
      markerReady = true;
    }

    function pointer(evt) {
      const pt = svg.createSVGPoint();
      pt.x = evt.clientX;
      pt.y = evt.clientY;
      return pt.matrixTransform(svg.getScreenCTM().inverse());
    }

    function nodeElement(n) {
      let g = nodeEls.get(n.id);
      if (g) return g;
      g = el("g", {"class": "node", "data-id": n.id});
      if (n.imageUrl) {
        const img = el("image", {width: 40, height: 40, x: -20, y: -20});
        img.setAttributeNS("http://www.w3.org/1999/xlink", "href", n.imageUrl);
        g.appendChild(img);
      }
      const text = el("text", {"text-anchor": "middle", dy: "30px"});
      text.textContent = n.label;
      g.appendChild(text);

      let moved = false;
      g.addEventListener("pointerdown", function (evt) {
        g.setPointerCapture(evt.pointerId);
        moved = false;
        post("/api/drag/start", {id: n.id});
      });
      g.addEventListener("pointermove", function (evt) {
        if (!g.hasPointerCapture(evt.pointerId)) return;
        moved = true;
        const p = pointer(evt);
        post("/api/drag/move", {id: n.id, x: p.x, y: p.y});
      });
      g.addEventListener("pointerup", function (evt) {
        g.releasePointerCapture(evt.pointerId);
        post("/api/drag/end", {id: n.id});
      });
      g.addEventListener("click", function () {
        if (moved) return;
        post("/api/click", {id: n.id});
      });
      nodeEls.set(n.id, g);
      return g;
    }

    function linkElements(e) {
      let pair = linkEls.get(e.id);
      if (pair) return pair;
      const path = el("path", {stroke: "#999", "marker-end": "url(#arrow)"});
      const text = el("text", {});
      text.textContent = e.label;
      links.appendChild(path);
      labels.appendChild(text);
      pair = {path: path, text: text};
      linkEls.set(e.id, pair);
      return pair;
    }

    function draw(frame) {
      ensureMarker(frame.marker);
      for (const e of frame.edges) {
        const pair = linkElements(e);
        pair.path.setAttribute("d", e.path);
        pair.text.setAttribute("x", e.labelX);
        pair.text.setAttribute("y", e.labelY);
      }
      for (const n of frame.nodes) {
        const g = nodeElement(n);
        g.setAttribute("transform", "translate(" + n.x + "," + n.y + ")");
        nodes.appendChild(g);
      }
    }

    const events = new EventSource("/api/events");
    events.addEventListener("frame", function (evt) { draw(JSON.parse(evt.data)); });
    events.addEventListener("navigate", function (evt) {
      window.open(JSON.parse(evt.data).url, "_blank");
    });

    function resize() {
      svg.setAttribute("viewBox", "0 0 " + window.innerWidth + " " + window.innerHeight);
      post("/api/resize", {width: window.innerWidth, height: window.innerHeight});
    }
    window.addEventListener("resize", resize);
    resize();
  })();
  </script>
</body>
</html>
`))

package server

// clientScript connects a rendered page to its session. Clicks on
// elements with data-action and nav links become actions; render frames
// replace the body children that changed.
const clientScript = `(function () {
  "use strict";
  var page = document.body.getAttribute("data-festival-page") || "index.html";
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws?page=" + encodeURIComponent(page));
  var last = 0;

  function send(a) {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(a));
  }

  function lightboxOpen() {
    var lb = document.getElementById("lightbox");
    return lb && lb.style.display === "flex";
  }

  document.addEventListener("click", function (e) {
    var el = e.target.closest("[data-action]");
    if (el) {
      e.preventDefault();
      var a = { type: el.dataset.action.replace(/-/g, "_") };
      for (var k in el.dataset) if (k !== "action") a[k] = el.dataset[k];
      send(a);
      return;
    }
    var link = e.target.closest("a.nav-link");
    if (link) {
      e.preventDefault();
      send({ type: "navigate", href: link.getAttribute("href") });
    }
  });

  document.addEventListener("keydown", function (e) {
    if (e.target.id === "assistant-input" && e.key === "Enter") {
      send({ type: "chat_send", text: e.target.value });
      e.target.value = "";
      return;
    }
    if (!lightboxOpen()) return;
    if (e.key === "ArrowRight") send({ type: "lightbox_next" });
    if (e.key === "ArrowLeft") send({ type: "lightbox_prev" });
    if (e.key === "Escape") send({ type: "lightbox_close" });
  });

  function sync(next) {
    var link = document.getElementById("theme-style");
    var nextLink = next.getElementById("theme-style");
    if (link && nextLink) link.setAttribute("href", nextLink.getAttribute("href"));
    document.documentElement.lang = next.documentElement.lang;
    document.body.className = next.body.className;

    var runtime = document.getElementById("festival-runtime");
    var cur = Array.prototype.filter.call(document.body.children, function (c) { return c !== runtime; });
    var nxt = next.body.children;
    if (cur.length !== nxt.length) {
      document.body.innerHTML = next.body.innerHTML;
      return;
    }
    for (var i = 0; i < cur.length; i++) {
      if (cur[i].outerHTML === nxt[i].outerHTML) continue;
      var input = cur[i].querySelector && cur[i].querySelector("#assistant-input");
      var focused = input && document.activeElement === input;
      cur[i].replaceWith(document.importNode(nxt[i], true));
      if (focused) document.getElementById("assistant-input").focus();
    }
    var chat = document.getElementById("assistant-chat");
    if (chat && chat.dataset.scroll === "bottom") chat.scrollTop = chat.scrollHeight;
  }

  ws.onmessage = function (m) {
    var f = JSON.parse(m.data);
    if (f.seq <= last) return;
    last = f.seq;
    if (f.type === "navigate") {
      location.href = f.url;
      return;
    }
    sync(new DOMParser().parseFromString(f.html, "text/html"));
  };
})();
`

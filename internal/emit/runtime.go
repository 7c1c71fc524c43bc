package emit

// runtimeBootstrap is the module-loading bootstrap shared across entry points.
// It is the body of the designated runtime chunk and must load before every
// other chunk. Style stubs hoisted by the planner are appended after it.
const runtimeBootstrap = `(function (global) {
  var modules = {};
  var cache = {};
  var styles = [];

  function define(id, factory) {
    modules[id] = factory;
  }

  function require(id) {
    if (cache[id]) {
      return cache[id].exports;
    }
    var module = { id: id, exports: {} };
    cache[id] = module; // registered before evaluation: late binding breaks import cycles
    if (!modules[id]) {
      throw new Error("module not registered: " + id);
    }
    modules[id](module, module.exports, require);
    return module.exports;
  }

  function style(id) {
    styles.push(id);
  }

  function injectStyle(id, css) {
    var el = document.createElement("style");
    el.setAttribute("data-module", id);
    el.appendChild(document.createTextNode(css));
    document.head.appendChild(el);
  }

  global.__bundle = {
    define: define,
    require: require,
    style: style,
    injectStyle: injectStyle,
    styles: styles
  };
})(typeof window !== "undefined" ? window : this);
`
